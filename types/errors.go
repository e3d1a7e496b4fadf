// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package types

import "fmt"

// ErrAlreadyTriggered is returned when Succeed or Fail is called on an
// event whose value has already been set.
var ErrAlreadyTriggered = fmt.Errorf("event has already been triggered")

// ErrAlreadyProcessed is returned when a callback is appended to an event
// whose callbacks have already been dispatched and cleared.
var ErrAlreadyProcessed = fmt.Errorf("event has already been processed")

// ErrNotReady is returned by Value when the event has not yet triggered.
var ErrNotReady = fmt.Errorf("event value is not ready")

// ErrInvalidArgument covers a non-error value passed to Fail, or a
// negative delay passed to a scheduling call.
var ErrInvalidArgument = fmt.Errorf("invalid argument")

// ErrEnvironmentMismatch is returned when a condition is built from
// events that belong to different environments.
var ErrEnvironmentMismatch = fmt.Errorf("events belong to different environments")

// ErrEmptyQueue is returned by Step when there is nothing left to
// dispatch, and by Run in UntilEvent mode when the queue empties before
// the target event has processed.
var ErrEmptyQueue = fmt.Errorf("no scheduled events")

// ErrInterruptNotAllowed is returned when a process tries to interrupt
// itself, or interrupt a process that has already terminated.
var ErrInterruptNotAllowed = fmt.Errorf("interrupt not allowed")

// InvalidYieldError reports that a process yielded a value that was not
// an *Event, optionally naming the frame that produced it.
type InvalidYieldError struct {
	Frame string
	Value any
}

func (e *InvalidYieldError) Error() string {
	if e.Frame != "" {
		return fmt.Sprintf("invalid yield value %#v at %s", e.Value, e.Frame)
	}
	return fmt.Sprintf("invalid yield value %#v", e.Value)
}

// Interrupt is the error value delivered into a process when it is
// interrupted while waiting on an event.
type Interrupt struct {
	cause error
}

// NewInterrupt wraps cause (which may be nil) as an Interrupt.
func NewInterrupt(cause error) *Interrupt {
	return &Interrupt{cause: cause}
}

// Cause returns the value originally supplied to Process.Interrupt.
func (i *Interrupt) Cause() error {
	if i == nil {
		return nil
	}
	return i.cause
}

func (i *Interrupt) Error() string {
	if i.cause == nil {
		return "interrupted"
	}
	return fmt.Sprintf("interrupted: %v", i.cause)
}

// Unwrap exposes the interrupt cause to errors.Is/errors.As.
func (i *Interrupt) Unwrap() error {
	return i.cause
}

// UnhandledFailureError is raised out of Step/Run when a failed event is
// processed without any callback defusing it.
type UnhandledFailureError struct {
	cause     error
	EventName string
}

// NewUnhandledFailure builds an UnhandledFailureError for the given root
// cause and event name.
func NewUnhandledFailure(name string, cause error) *UnhandledFailureError {
	return &UnhandledFailureError{cause: cause, EventName: name}
}

func (e *UnhandledFailureError) Error() string {
	return fmt.Sprintf("unhandled failure in event %q: %v", e.EventName, e.cause)
}

// Unwrap exposes the root cause to errors.Is/errors.As.
func (e *UnhandledFailureError) Unwrap() error {
	return e.cause
}
