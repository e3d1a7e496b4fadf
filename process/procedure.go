// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package process turns a step-wise user procedure into a chained
// sequence of event waits. It realizes the "resumable step-wise
// computation" design note from spec.md §9 as a Go interface, with a
// goroutine-backed stackful-fiber adapter (Func) for ordinary
// direct-style functions, and supports hand-rolled state-machine
// Procedures for callers who would rather not pay for a goroutine.
package process

import "github.com/desimgo/desim/types"

// Step is what a Procedure returns after Start/Resume/Throw runs the
// user code to its next suspension point.
type Step struct {
	// Yield is the event to wait on next. Nil unless the procedure is
	// still running.
	Yield *types.Event
	// Done is true once the procedure has returned or raised.
	Done bool
	// Value is the procedure's return value, valid when Done && Err == nil.
	Value any
	// Err is the procedure's unhandled error, valid when Done && Err != nil.
	Err error
	// Invalid marks that the procedure yielded something other than an
	// *types.Event (spec.md's InvalidYield). InvalidValue carries the
	// offending value for diagnostics.
	Invalid      bool
	InvalidValue any
}

// Procedure is a resumable step-wise computation: the three operations
// spec.md §9 requires (start, resume-with-value, throw-error) plus the
// two terminal outcomes (return-with-value, unhandled-error), modeled
// through Step instead of language-level generator resumption.
type Procedure interface {
	Start() Step
	Resume(value any) Step
	Throw(err error) Step
}
