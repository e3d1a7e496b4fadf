// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package condition derives a composite event from a list of sub-events
// under an aggregation predicate: AllOf fires once every sub-event has
// processed, AnyOf fires once the first one has (or immediately, if the
// list is empty). Both short-circuit the first sub-event failure,
// forwarding it as the composite's own failure.
package condition

import (
	"fmt"

	"github.com/desimgo/desim/types"
)

// Mode selects the aggregation predicate a Condition evaluates.
type Mode int

const (
	// All fires once every sub-event has processed.
	All Mode = iota
	// Any fires once the first sub-event has processed, or immediately
	// if there are no sub-events.
	Any
)

func (m Mode) String() string {
	if m == Any {
		return "any_of"
	}
	return "all_of"
}

// Pair is one sub-event's contribution to a Condition's aggregated
// value.
type Pair struct {
	Event *types.Event
	Value any
}

// Values is the ordered-by-construction mapping a Condition's event
// triggers with: one Pair per sub-event that had processed by the time
// the condition itself processed. A plain Go map would lose the
// insertion order spec.md §4.4 requires, hence a slice.
type Values []Pair

// node tracks the bookkeeping a Condition's event needs beyond the base
// Event shape: its sub-events, for collect_values to walk, and its own
// computed Values, so a Condition nested inside another can have its
// contribution flattened transparently.
type node struct {
	mode   Mode
	events []*types.Event
	pairs  Values
}

// nodes maps a Condition's event back to its node. The kernel is
// single-threaded (spec.md §5), so no synchronization is needed, and
// entries live for the simulation's lifetime — consistent with the rest
// of the kernel holding no explicit teardown path for completed events.
var nodes = map[*types.Event]*node{}

func init() {
	types.RegisterComposers(
		func(a, b *types.Event) *types.Event {
			ev, err := New(a.Env(), All, []*types.Event{a, b})
			if err != nil {
				panic(err)
			}
			return ev
		},
		func(a, b *types.Event) *types.Event {
			ev, err := New(a.Env(), Any, []*types.Event{a, b})
			if err != nil {
				panic(err)
			}
			return ev
		},
	)
}

// AllOf returns an event that fires once every one of events has
// processed (vacuously, immediately, if events is empty).
func AllOf(env types.Scheduler, events ...*types.Event) (*types.Event, error) {
	return New(env, All, events)
}

// AnyOf returns an event that fires once the first of events has
// processed (immediately if events is empty).
func AnyOf(env types.Scheduler, events ...*types.Event) (*types.Event, error) {
	return New(env, Any, events)
}

// New constructs a Condition over events evaluated under mode. All of
// events must share env, or ErrEnvironmentMismatch is returned.
func New(env types.Scheduler, mode Mode, events []*types.Event) (*types.Event, error) {
	for _, e := range events {
		if e.Env() != env {
			return nil, fmt.Errorf("condition: %w", types.ErrEnvironmentMismatch)
		}
	}

	cond := types.NewEvent(env, mode.String())
	n := &node{mode: mode, events: events}
	nodes[cond] = n

	count := 0
	check := func(sub *types.Event) {
		if cond.Triggered() {
			return
		}
		count++

		if !sub.Ok() {
			sub.Defuse()
			v, _ := sub.Value()
			cause, ok := v.(error)
			if !ok {
				cause = fmt.Errorf("%v", v)
			}
			_ = cond.Fail(cause)
			return
		}
		if satisfies(mode, len(events), count) {
			_ = cond.Succeed(nil)
		}
	}

	for _, sub := range events {
		if sub.Processed() {
			check(sub)
			continue
		}
		if _, err := sub.AddCallback(check); err != nil {
			// sub was just confirmed unprocessed above; the kernel is
			// single-threaded, so this cannot race.
			panic(fmt.Errorf("condition: registering on sub-event failed unexpectedly: %w", err))
		}
	}

	if _, err := cond.AddCallback(func(ev *types.Event) {
		if !ev.Ok() {
			// Keep the forwarded sub-event failure as the condition's value.
			return
		}
		n.pairs = collect(events)
		ev.SetValue(n.pairs)
	}); err != nil {
		panic(fmt.Errorf("condition: registering collect_values failed unexpectedly: %w", err))
	}

	if len(events) == 0 {
		_ = cond.Succeed(nil)
	}

	return cond, nil
}

// satisfies implements the two built-in evaluation predicates from
// spec.md §4.4.
func satisfies(mode Mode, total, processedCount int) bool {
	if mode == All {
		return processedCount == total
	}
	return processedCount > 0 || total == 0
}

// collect walks events, contributing (event -> value) for each one that
// has processed, flattening any sub-event that is itself a Condition.
func collect(events []*types.Event) Values {
	var out Values
	for _, e := range events {
		if !e.Processed() {
			continue
		}
		if nested, ok := nodes[e]; ok {
			out = append(out, nested.pairs...)
			continue
		}
		v, _ := e.Value()
		out = append(out, Pair{Event: e, Value: v})
	}
	return out
}
