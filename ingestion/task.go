// Copyright 2025 Poiesic Systems
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

package ingestion

import "context"

// Task is a handle on a background run started with Pipeline.Start.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	report *Report
	err    error
}

// Cancel asks the run to stop at the next chunk or document boundary.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the run has ended.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run ends and returns its outcome.
func (t *Task) Wait() (*Report, error) {
	<-t.done
	return t.report, t.err
}
