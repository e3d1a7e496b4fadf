// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"

	"github.com/desimgo/desim/types"
)

// errAbandoned is returned from Controller.Yield/Wait once the driver
// has given up on the goroutine behind it — currently only once an
// invalid yield has terminated the process. It lets the user body's
// remaining channel operations resolve immediately instead of blocking
// on an unbuffered channel that next() will never service again.
var errAbandoned = errors.New("process: procedure abandoned after invalid yield")

// Controller is handed to a Func body; Yield (and Wait, its typed form)
// is its only suspension point. Behind it, one goroutine runs the user body and blocks on an
// unbuffered channel pair with whatever is driving the Procedure
// interface — a stackful-fiber strategy (spec.md §9) where exactly one
// of {user body, driver} is ever runnable, so the single-threaded
// determinism invariant (spec.md §5) holds despite the goroutine.
type Controller struct {
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg
	doneCh   chan struct{}
}

type resumeMsg struct {
	value any
	err   error
}

type yieldMsg struct {
	event   *types.Event
	done    bool
	value   any
	err     error
	invalid bool
	raw     any
}

// Yield suspends the calling goroutine until the driver resumes or
// throws into it. v is ordinarily an *types.Event; anything else is
// reported to the driver as an invalid yield (spec.md's InvalidYield),
// which fails the process rather than panicking the goroutine. Once
// next() has reported an invalid yield it closes doneCh, so both
// selects below resolve immediately rather than leaking this goroutine
// on a channel nobody reads from again.
func (c *Controller) Yield(v any) (any, error) {
	ev, ok := v.(*types.Event)
	var out yieldMsg
	if !ok {
		out = yieldMsg{invalid: true, raw: v}
	} else {
		out = yieldMsg{event: ev}
	}

	select {
	case c.yieldCh <- out:
	case <-c.doneCh:
		return nil, errAbandoned
	}

	select {
	case msg := <-c.resumeCh:
		return msg.value, msg.err
	case <-c.doneCh:
		return nil, errAbandoned
	}
}

// Wait is sugar for Yield when the caller already holds a typed event.
func (c *Controller) Wait(ev *types.Event) (any, error) {
	return c.Yield(ev)
}

// funcProcedure adapts a direct-style function into a Procedure by
// running it on its own goroutine.
type funcProcedure struct {
	fn   func(*Controller) (any, error)
	ctrl *Controller
}

// Func builds a Procedure from an ordinary function written in direct
// style: it calls ctrl.Wait(ev) wherever the spec's pseudocode would
// yield, and returns (value, nil) or (nil, err) on termination.
func Func(fn func(*Controller) (any, error)) Procedure {
	return &funcProcedure{fn: fn}
}

func (f *funcProcedure) Start() Step {
	f.ctrl = &Controller{
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
		doneCh:   make(chan struct{}),
	}
	go func() {
		v, err := f.fn(f.ctrl)
		select {
		case f.ctrl.yieldCh <- yieldMsg{done: true, value: v, err: err}:
		case <-f.ctrl.doneCh:
		}
	}()
	return f.next()
}

func (f *funcProcedure) Resume(value any) Step {
	f.ctrl.resumeCh <- resumeMsg{value: value}
	return f.next()
}

func (f *funcProcedure) Throw(err error) Step {
	f.ctrl.resumeCh <- resumeMsg{err: err}
	return f.next()
}

func (f *funcProcedure) next() Step {
	msg := <-f.ctrl.yieldCh
	switch {
	case msg.done:
		return Step{Done: true, Value: msg.value, Err: msg.err}
	case msg.invalid:
		// The process is being terminated without ever resuming this
		// goroutine again; release it before handing the Invalid step
		// back to drive().
		close(f.ctrl.doneCh)
		return Step{Invalid: true, InvalidValue: msg.raw}
	default:
		return Step{Yield: msg.event}
	}
}
