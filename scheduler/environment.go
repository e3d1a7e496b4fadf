// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package scheduler owns the virtual clock and the priority queue that
// together drive a desim simulation: it advances time from one
// triggered-but-unprocessed event to the next and invokes each event's
// continuations in registration order.
package scheduler

import (
	"container/heap"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/desimgo/desim/types"
)

// Priority re-exports types.Priority so callers need not import types
// for the two scheduling constants.
type Priority = types.Priority

const (
	// Urgent fires before any Normal event scheduled at the same instant.
	Urgent = types.Urgent
	// Normal is the default priority for user-scheduled events.
	Normal = types.Normal
)

// Stats are small dispatch counters, narrowed from the teacher's
// schedulerStats struct (scheduler/scheduler.go) down to what makes
// sense for a synchronous, single-threaded dispatch loop: there is no
// "in process"/"waiting" state here, since a step runs a callback to
// completion before the next one starts.
type Stats struct {
	EventsScheduled   int
	EventsProcessed   int
	UnhandledFailures int
}

// Environment owns the virtual clock and the event queue. It is not
// safe for concurrent use — the kernel is single-threaded by design
// (spec §5).
type Environment struct {
	now    time.Duration
	clk    *clock.Mock
	seq    uint64
	queue  eventHeap
	active any
	log    *slog.Logger
	stats  Stats
}

// Option configures an Environment at construction time.
type Option func(*Environment)

// WithLogger attaches a structured logger; every Step emits a Debug
// record naming the dispatched event. A nil logger (the default)
// disables this.
func WithLogger(l *slog.Logger) Option {
	return func(e *Environment) { e.log = l }
}

// WithClock swaps the mock clock returned by Clock(). Step sets it to the
// Unix epoch plus Now on every dispatch, so whatever time the supplied
// clock started at is replaced at the first Step.
func WithClock(c *clock.Mock) Option {
	return func(e *Environment) { e.clk = c }
}

// NewEnvironment constructs an Environment with now = 0.
func NewEnvironment(opts ...Option) *Environment {
	e := &Environment{clk: clock.NewMock()}
	for _, opt := range opts {
		opt(e)
	}
	heap.Init(&e.queue)
	return e
}

// Now returns the current virtual time.
func (e *Environment) Now() time.Duration { return e.now }

// Clock returns the mock clock kept in lockstep with Now, for code that
// wants a time.Time rather than a bare duration (log timestamps, mainly).
// It is never consulted to decide dispatch order.
func (e *Environment) Clock() *clock.Mock { return e.clk }

// Stats returns a copy of the environment's dispatch counters.
func (e *Environment) Stats() Stats { return e.stats }

// SetActiveProcessHandle implements types.Scheduler.
func (e *Environment) SetActiveProcessHandle(p any) { e.active = p }

// ActiveProcessHandle implements types.Scheduler.
func (e *Environment) ActiveProcessHandle() any { return e.active }

// Schedule appends ev to the queue keyed by (now+delay, priority,
// insertion order). ev must already be triggered and not yet processed;
// delay must be non-negative.
func (e *Environment) Schedule(ev *types.Event, priority Priority, delay time.Duration) error {
	if !ev.Triggered() {
		return fmt.Errorf("%w: event %q is not triggered", types.ErrInvalidArgument, ev.Name)
	}
	if ev.Processed() {
		return types.ErrAlreadyProcessed
	}
	if delay < 0 {
		return fmt.Errorf("%w: negative delay", types.ErrInvalidArgument)
	}

	e.seq++
	heap.Push(&e.queue, entry{
		at:       e.now + delay,
		priority: priority,
		seq:      e.seq,
		event:    ev,
	})
	e.stats.EventsScheduled++
	return nil
}

// Peek returns the time of the next scheduled event, or +Inf if the
// queue is empty.
func (e *Environment) Peek() time.Duration {
	if len(e.queue) == 0 {
		return time.Duration(1<<63 - 1)
	}
	return e.queue[0].at
}

// Event returns a bare, externally-completable event.
func (e *Environment) Event() *types.Event {
	return types.NewEvent(e, "event")
}

// Timeout returns an event already triggered with value, scheduled to
// process at now+delay with Normal priority. delay must be >= 0.
func (e *Environment) Timeout(delay time.Duration, value any) (*types.Event, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative timeout delay", types.ErrInvalidArgument)
	}
	ev := types.NewTriggeredEvent(e, "timeout", true, value, false)
	if err := e.Schedule(ev, Normal, delay); err != nil {
		return nil, err
	}
	return ev, nil
}

// Step pops the earliest event, marks it processed, and invokes each of
// its callbacks in registration order. It returns ErrEmptyQueue if the
// queue is empty, or an UnhandledFailureError if the popped event failed
// without any callback defusing it.
func (e *Environment) Step() error {
	if len(e.queue) == 0 {
		return types.ErrEmptyQueue
	}

	item := heap.Pop(&e.queue).(entry)
	e.now = item.at
	e.clk.Set(time.Unix(0, 0).Add(e.now))
	ev := item.event

	if e.log != nil {
		e.log.Debug("dispatching event",
			"name", ev.Name, "id", ev.ID.String(), "now", e.now, "ok", ev.Ok())
	}

	callbacks := ev.MarkProcessed()
	for _, cb := range callbacks {
		cb(ev)
	}
	e.stats.EventsProcessed++

	if !ev.Ok() && !ev.Defused() {
		e.stats.UnhandledFailures++
		cause, _ := ev.Value()
		err, _ := cause.(error)
		if err == nil {
			err = fmt.Errorf("%v", cause)
		}
		return types.NewUnhandledFailure(ev.Name, err)
	}
	return nil
}
