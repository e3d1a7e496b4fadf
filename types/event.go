// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package types holds the kernel's event object model: the Event state
// machine shared by timeouts, process completions, interruptions, and
// conditions, plus the error kinds the rest of the module raises.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders events scheduled for the same virtual time. Lower
// values dispatch first.
type Priority int

const (
	// Urgent fires before any Normal event scheduled at the same instant.
	Urgent Priority = 0
	// Normal is the default priority for user-scheduled events.
	Normal Priority = 1
)

// Callback is a continuation invoked exactly once when the event it was
// registered on is processed.
type Callback func(*Event)

// Scheduler is the subset of the environment an Event needs in order to
// enqueue itself. scheduler.Environment implements it; Event depends on
// the interface rather than the concrete type to avoid an import cycle
// between types and scheduler.
type Scheduler interface {
	Now() time.Duration
	Schedule(ev *Event, priority Priority, delay time.Duration) error

	// SetActiveProcessHandle and ActiveProcessHandle track whichever
	// process is currently being resumed, type-erased as any so that
	// types has no import-time dependency on the process package (which
	// itself depends on types.Scheduler). Callers type-assert back to
	// *process.Process.
	SetActiveProcessHandle(p any)
	ActiveProcessHandle() any
}

// composeAnd and composeOr back Event.And/Event.Or. Go has no operator
// overloading, so the `&`/`|` composition from the source is exposed as
// named methods; the implementation is supplied by the condition package
// at init time to avoid types importing condition (which itself imports
// types).
var (
	composeAnd func(a, b *Event) *Event
	composeOr  func(a, b *Event) *Event
)

// RegisterComposers wires the condition package's AllOf/AnyOf into
// Event.And/Event.Or. Called from condition's init(); exported only so
// that relationship is visible rather than a silent package-level side
// effect.
func RegisterComposers(and, or func(a, b *Event) *Event) {
	composeAnd = and
	composeOr = or
}

// Event is the central entity of the kernel: a deferred outcome with a
// success/failure value and an ordered list of continuations.
type Event struct {
	env Scheduler
	ID  uuid.UUID
	// Name is a short diagnostic label (timeout, process, interrupt,
	// condition, ...), surfaced in logs and InvalidYieldError messages.
	Name string

	triggered bool
	processed bool
	ok        bool
	value     any
	defused   bool
	callbacks []callbackEntry
	nextCBID  uint64
}

// callbackEntry tags a callback with an id so a specific registration can
// be removed later — the process driver needs this to detach a process's
// resume continuation from an interrupted wait's target event without
// disturbing anyone else waiting on it.
type callbackEntry struct {
	id uint64
	fn Callback
}

// NewEvent returns a bare, untriggered event owned by env.
func NewEvent(env Scheduler, name string) *Event {
	return &Event{env: env, ID: uuid.New(), Name: name}
}

// NewTriggeredEvent returns an event that is already triggered with the
// given outcome, without scheduling it. Callers (the process driver, the
// scheduler's Timeout and Run) follow up with env.Schedule at the priority their
// variant requires — Initialize and Interruption events jump the queue
// at Urgent, everything else schedules at Normal.
func NewTriggeredEvent(env Scheduler, name string, ok bool, value any, defused bool) *Event {
	e := NewEvent(env, name)
	e.triggered = true
	e.ok = ok
	e.value = value
	e.defused = defused
	return e
}

// Env returns the event's owning environment.
func (e *Event) Env() Scheduler { return e.env }

// Triggered reports whether the event's outcome has been decided.
func (e *Event) Triggered() bool { return e.triggered }

// Processed reports whether the scheduler has already dispatched this
// event's callbacks. No further callback may be appended once true.
func (e *Event) Processed() bool { return e.processed }

// Ok reports the success/failure flag. Only meaningful once Triggered.
func (e *Event) Ok() bool { return e.ok }

// Defused reports whether a consumer has taken ownership of a failure,
// suppressing the scheduler's UnhandledFailureError.
func (e *Event) Defused() bool { return e.defused }

// Defuse marks the event's failure as handled.
func (e *Event) Defuse() { e.defused = true }

// Callbacks returns the continuations still pending dispatch, in
// registration order. The returned slice must not be retained across a
// Step call.
func (e *Event) Callbacks() []Callback {
	out := make([]Callback, len(e.callbacks))
	for i, c := range e.callbacks {
		out[i] = c.fn
	}
	return out
}

// Value returns the event's payload. It fails with ErrNotReady if the
// event has not yet triggered.
func (e *Event) Value() (any, error) {
	if !e.triggered {
		return nil, ErrNotReady
	}
	return e.value, nil
}

// Succeed assigns a success outcome and schedules the event for
// dispatch at the current virtual time with Normal priority. It fails
// with ErrAlreadyTriggered if the event has already been triggered.
func (e *Event) Succeed(value any) error {
	if e.triggered {
		return ErrAlreadyTriggered
	}
	e.triggered = true
	e.ok = true
	e.value = value
	return e.env.Schedule(e, Normal, 0)
}

// Fail assigns a failure outcome and schedules the event for dispatch.
// err must be non-nil, or ErrInvalidArgument is returned instead.
func (e *Event) Fail(err error) error {
	if e.triggered {
		return ErrAlreadyTriggered
	}
	if err == nil {
		return ErrInvalidArgument
	}
	e.triggered = true
	e.ok = false
	e.value = err
	return e.env.Schedule(e, Normal, 0)
}

// Trigger copies other's outcome into e and schedules e, so it can serve
// as a bridge continuation from one event to another.
func (e *Event) Trigger(other *Event) error {
	if !other.triggered {
		return ErrNotReady
	}
	if other.ok {
		return e.Succeed(other.value)
	}
	return e.Fail(other.value.(error))
}

// AddCallback registers cb to run when the event is processed, returning
// an id that RemoveCallback can later use to detach it. It fails with
// ErrAlreadyProcessed if the event's callbacks have already been
// dispatched.
func (e *Event) AddCallback(cb Callback) (uint64, error) {
	if e.processed {
		return 0, ErrAlreadyProcessed
	}
	e.nextCBID++
	id := e.nextCBID
	e.callbacks = append(e.callbacks, callbackEntry{id: id, fn: cb})
	return id, nil
}

// RemoveCallback detaches a previously registered callback by id. It is
// a no-op if the event has already been processed or the id is unknown
// (both happen harmlessly in the interrupt-delivery race the process
// driver resolves by removing the callback before the original target
// can fire).
func (e *Event) RemoveCallback(id uint64) {
	if e.processed {
		return
	}
	for i, c := range e.callbacks {
		if c.id == id {
			e.callbacks = append(e.callbacks[:i], e.callbacks[i+1:]...)
			return
		}
	}
}

// MarkProcessed snapshots and clears the callback list, returning the
// snapshot for the scheduler to invoke. Only the scheduler calls this.
func (e *Event) MarkProcessed() []Callback {
	snapshot := e.Callbacks()
	e.callbacks = nil
	e.processed = true
	return snapshot
}

// SetValue overwrites an already-triggered event's payload. It exists
// solely for the condition composer: a Condition's value (the collected
// map of sub-event outcomes) is only known once its sub-events have been
// walked, which happens in a callback that runs during the Condition's
// own processing, after Succeed(nil) already triggered it. The call is
// safe because collect_values is always the first callback the
// condition composer registers, so it runs before any other observer of
// the event's value.
func (e *Event) SetValue(v any) {
	e.value = v
}

// And returns Condition(ALL, [e, other]) — the `a & b` composition from
// spec.md §4.2.
func (e *Event) And(other *Event) *Event {
	return composeAnd(e, other)
}

// Or returns Condition(ANY, [e, other]) — the `a | b` composition from
// spec.md §4.2.
func (e *Event) Or(other *Event) *Event {
	return composeOr(e, other)
}
