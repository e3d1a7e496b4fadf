// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/desimgo/desim/types"
)

// Process wraps a user Procedure and drives it through the resume loop
// from spec.md §4.3. It inherits the Event shape: Event triggers only
// when the underlying procedure terminates, so other processes can wait
// on a Process exactly as they would on any other event.
type Process struct {
	// Event is the process's own completion event. Its Ok/Value reflect
	// the procedure's return value (success) or unhandled error
	// (failure) once the process has died.
	Event *types.Event

	env   types.Scheduler
	ID    uuid.UUID
	Name  string
	proc  Procedure

	target           *types.Event
	targetCallbackID uint64
	begun            bool
	alive            bool
}

// New constructs a Process, immediately scheduling its Initialize event
// at the current virtual time with Urgent priority per spec.md §3.2.
func New(env types.Scheduler, name string, proc Procedure) *Process {
	p := &Process{
		Event: types.NewEvent(env, name),
		env:   env,
		ID:    uuid.New(),
		Name:  name,
		proc:  proc,
		alive: true,
	}

	init := types.NewTriggeredEvent(env, "initialize:"+name, true, nil, false)
	if err := env.Schedule(init, types.Urgent, 0); err != nil {
		panic(fmt.Errorf("process %q: scheduling its own Initialize event failed: %w", name, err))
	}
	id, err := init.AddCallback(p.drive)
	if err != nil {
		panic(fmt.Errorf("process %q: registering its Initialize continuation failed: %w", name, err))
	}
	p.target = init
	p.targetCallbackID = id
	return p
}

// IsAlive reports whether the underlying procedure has not yet
// terminated. Equivalent to the spec's `_value is PENDING`.
func (p *Process) IsAlive() bool { return p.alive }

// Target returns the event the process is currently waiting on, or its
// own completion event once it has died.
func (p *Process) Target() *types.Event {
	if !p.alive {
		return p.Event
	}
	return p.target
}

// Interrupt pre-empts the process's current wait with an Interrupt
// error. It fails with ErrInterruptNotAllowed if the process has already
// terminated or if the caller is the process itself.
func (p *Process) Interrupt(cause error) error {
	if !p.alive {
		return fmt.Errorf("%w: process %q has already terminated", types.ErrInterruptNotAllowed, p.Name)
	}
	if active, ok := p.env.ActiveProcessHandle().(*Process); ok && active == p {
		return fmt.Errorf("%w: a process cannot interrupt itself", types.ErrInterruptNotAllowed)
	}

	ev := types.NewTriggeredEvent(p.env, "interrupt:"+p.Name, false, types.NewInterrupt(cause), true)
	if err := p.env.Schedule(ev, types.Urgent, 0); err != nil {
		return err
	}

	if _, err := ev.AddCallback(p.deliverInterrupt); err != nil {
		return err
	}
	return nil
}

// deliverInterrupt is the Interruption event's continuation. It reads
// p.target fresh at dispatch time, not at Interrupt()-call time, so that
// a second interrupt scheduled for the same instant sees whatever the
// first interrupt's delivery already changed it to.
func (p *Process) deliverInterrupt(interruptEvent *types.Event) {
	if !p.alive {
		// The process died (or was already interrupted into death) before
		// this interrupt was delivered; drop it silently per the
		// "subsequent ones are silently dropped" rule.
		return
	}
	p.target.RemoveCallback(p.targetCallbackID)
	p.drive(interruptEvent)
}

// drive is the continuation registered on whatever event the process is
// currently waiting on; it is the resume-loop state machine of spec.md
// §4.3.
func (p *Process) drive(target *types.Event) {
	p.env.SetActiveProcessHandle(p)
	defer p.env.SetActiveProcessHandle(nil)

	for {
		var step Step
		switch {
		case !p.begun:
			p.begun = true
			step = p.proc.Start()
		case target.Ok():
			v, _ := target.Value()
			step = p.proc.Resume(v)
		default:
			target.Defuse()
			v, _ := target.Value()
			err, _ := v.(error)
			if err == nil {
				err = fmt.Errorf("%v", v)
			}
			step = p.proc.Throw(err)
		}

		switch {
		case step.Done:
			p.terminate(step.Value, step.Err)
			return
		case step.Invalid:
			p.terminate(nil, &types.InvalidYieldError{Frame: p.Name, Value: step.InvalidValue})
			return
		case step.Yield == nil:
			panic(fmt.Errorf("process %q: Procedure returned an empty Step", p.Name))
		case step.Yield.Processed():
			// Fast path: the yielded event already fired (e.g. a
			// Timeout(0) the scheduler already drained), so loop
			// in-process instead of round-tripping through the queue.
			target = step.Yield
			continue
		default:
			id, err := step.Yield.AddCallback(p.drive)
			if err != nil {
				panic(fmt.Errorf("process %q: registering continuation on its yielded event failed: %w", p.Name, err))
			}
			p.target = step.Yield
			p.targetCallbackID = id
			return
		}
	}
}

func (p *Process) terminate(value any, err error) {
	p.alive = false
	p.target = p.Event
	if err != nil {
		_ = p.Event.Fail(err)
		return
	}
	_ = p.Event.Succeed(value)
}
