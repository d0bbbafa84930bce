/*
 * Copyright 2025 Carver Automation Corporation.
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
 */

package lifecycle

import (
	"context"
	"sync"
)

// Tracker lets Stop wait for a Start running in another goroutine. Once Stop
// has begun, a Start that has not entered yet is refused, so Stop never
// returns ahead of a Start that is about to run.
type Tracker struct {
	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// Enter registers a running Start. It reports false once Stop has begun.
func (t *Tracker) Enter() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopping {
		return false
	}

	t.wg.Add(1)

	return true
}

// Exit marks the Start registered by Enter as finished.
func (t *Tracker) Exit() {
	t.wg.Done()
}

// Wait refuses further Enter calls and blocks until every entered Start has
// exited or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	t.stopping = true
	t.mu.Unlock()

	done := make(chan struct{})

	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
