// Copyright 2025 The weenix-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package clock provides an injectable notion of time, used for vnode
// mtimes and for pacing the scheduler's idle-wait loop without depending on
// wall-clock time in tests.
package clock

import "time"

// Clock is the interface required by anything that needs the current time
// or a timer, so that tests can substitute a fake or simulated clock.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
