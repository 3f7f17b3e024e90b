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

import (
	"testing"
	"time"
)

func TestSerialDispatcherRunsInOrder(t *testing.T) {
	d := NewSerialDispatcher()
	defer d.Close()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		d.Schedule(func() {
			got = append(got, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scheduled callbacks")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("got = %v, want [0 1 2 3 4]", got)
		}
	}
}

func TestSerialDispatcherCloseStopsProcessing(t *testing.T) {
	d := NewSerialDispatcher()
	d.Close()

	ran := false
	d.Schedule(func() { ran = true })
	time.Sleep(20 * time.Millisecond)
	if ran {
		t.Errorf("callback ran after Close, want dropped")
	}
}

func TestInlineDispatcherRunsSynchronously(t *testing.T) {
	var d inlineDispatcher
	ran := false
	d.Schedule(func() { ran = true })
	if !ran {
		t.Errorf("Schedule() did not run the callback synchronously")
	}
}
