// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import "github.com/desimgo/desim/process"

// Process starts proc under env by scheduling its Initialize event at the
// current virtual time (per spec.md §3.2). The returned Process has not
// run any user code yet: Initialize is merely scheduled, not dispatched,
// until the next Step.
func (e *Environment) Process(name string, proc process.Procedure) *process.Process {
	return process.New(e, name, proc)
}

// ActiveProcess is the typed convenience wrapper over
// ActiveProcessHandle, for callers that want the concrete type back
// without doing the type assertion themselves.
func (e *Environment) ActiveProcess() *process.Process {
	p, _ := e.ActiveProcessHandle().(*process.Process)
	return p
}
