/*
 *
 * Copyright 2024 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package deltasub

import "context"

// Dispatcher is the single event-loop thread a Subscription runs on (spec
// §5). It is the Go analogue of the Event::Dispatcher the original C++
// DeltaSubscriptionState takes in its constructor: the one thing a timer
// callback needs in order to hand control back to the thread that's
// allowed to touch subscription state.
//
// A caller is expected to invoke every Subscription method — UpdateInterest,
// NextRequest, HandleResponse, HandleEstablishmentFailure — from within this
// same dispatcher. A Subscription only ever uses Schedule itself for TTL
// expiry callbacks, the one source of activity that doesn't originate from
// a direct caller.
type Dispatcher interface {
	// Schedule arranges for fn to run on the dispatcher's thread. It must
	// be safe to call from any goroutine.
	Schedule(fn func())
}

// SerialDispatcher is a ready-made Dispatcher backed by a single goroutine
// that runs scheduled callbacks one at a time, in the order they were
// scheduled. Modeled on the teacher's grpcsync.CallbackSerializer (used
// throughout xdsclient to marshal callbacks onto the client's serializer
// goroutine), with internal/buffer.Unbounded — unimportable outside the
// grpc-go module — replaced by a plain buffered channel.
type SerialDispatcher struct {
	cancel    context.CancelFunc
	done      chan struct{}
	callbacks chan func()
}

// NewSerialDispatcher starts a SerialDispatcher. Call Close when done with
// it to stop its goroutine.
func NewSerialDispatcher() *SerialDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &SerialDispatcher{
		cancel:    cancel,
		done:      make(chan struct{}),
		callbacks: make(chan func(), 16),
	}
	go d.run(ctx)
	return d
}

// Schedule enqueues fn to run on the dispatcher's goroutine.
func (d *SerialDispatcher) Schedule(fn func()) {
	select {
	case d.callbacks <- fn:
	case <-d.done:
	}
}

// Close stops the dispatcher's goroutine. No further scheduled callbacks
// will run.
func (d *SerialDispatcher) Close() {
	d.cancel()
	<-d.done
}

func (d *SerialDispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-d.callbacks:
			fn()
		}
	}
}

// inlineDispatcher runs scheduled callbacks synchronously, on whichever
// goroutine called Schedule. Used as the default when a Subscription is
// constructed without an explicit Dispatcher — fine for tests and for
// callers that already serialize TTL-driven callbacks some other way, but
// not safe if TTL timers and direct method calls can race.
type inlineDispatcher struct{}

func (inlineDispatcher) Schedule(fn func()) { fn() }
