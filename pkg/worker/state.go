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

package worker

import (
	"sync/atomic"

	"github.com/carverauto/devicejobs/pkg/logger"
)

// State is the worker's position in its consume loop.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConsuming
	StateProcessing
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConsuming:
		return "consuming"
	case StateProcessing:
		return "processing"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

type stateTracker struct {
	v      atomic.Int32
	logger logger.Logger
}

func newStateTracker(log logger.Logger) *stateTracker {
	return &stateTracker{logger: log}
}

func (t *stateTracker) Load() State {
	return State(t.v.Load())
}

// Set records a transition. Setting the current state again is not logged.
func (t *stateTracker) Set(next State) {
	prev := State(t.v.Swap(int32(next)))
	if prev == next {
		return
	}

	t.logger.Debug().
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("Worker state changed")
}
