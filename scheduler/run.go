// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"time"

	"github.com/desimgo/desim/types"
)

// Until selects how Run decides when to stop, mirroring the three forms
// spec.md §4.1(c) describes: run forever (while the queue is non-empty),
// run up to and including a given instant, or run until a specific event
// is processed.
type Until struct {
	forever bool
	until   time.Duration
	event   *types.Event
}

// RunForever runs while the queue is non-empty.
func RunForever() Until { return Until{forever: true} }

// UntilTime advances time up to and including the given instant.
func UntilTime(d time.Duration) Until { return Until{until: d} }

// UntilEvent runs until ev is processed, returning its value (or its
// error, if it failed and was not defused).
func UntilEvent(ev *types.Event) Until { return Until{event: ev} }

// Run drives the dispatch loop per the selected Until mode. For
// RunForever it runs while the queue is non-empty. For UntilTime it
// schedules a stop sentinel at the target instant with Normal priority
// so that all events already due at that instant (including those at
// Urgent priority) are processed before stopping — the "final stop
// sentinel" spec.md §4.1(b) calls for. For UntilEvent it steps until the
// target event is processed and returns its value, propagating an
// unhandled failure if the event failed without being defused.
func (e *Environment) Run(until Until) (any, error) {
	switch {
	case until.event != nil:
		return e.runUntilEvent(until.event)
	case until.forever:
		return nil, e.runForever()
	default:
		return nil, e.runUntilTime(until.until)
	}
}

func (e *Environment) runForever() error {
	for {
		err := e.Step()
		if err == types.ErrEmptyQueue {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (e *Environment) runUntilTime(target time.Duration) error {
	stop := types.NewTriggeredEvent(e, "run-until", true, nil, false)
	if err := e.Schedule(stop, Normal, target-e.now); err != nil {
		return err
	}

	for {
		if stop.Processed() {
			return nil
		}
		err := e.Step()
		if err == types.ErrEmptyQueue {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (e *Environment) runUntilEvent(target *types.Event) (any, error) {
	for !target.Processed() {
		err := e.Step()
		if err == types.ErrEmptyQueue {
			return nil, types.ErrEmptyQueue
		}
		if err != nil {
			// An unrelated event's unhandled failure still aborts the
			// run — it surfaces to the caller exactly as it would for
			// RunForever.
			return nil, err
		}
	}
	v, _ := target.Value()
	if !target.Ok() {
		target.Defuse()
		if err, ok := v.(error); ok {
			return nil, err
		}
	}
	return v, nil
}
