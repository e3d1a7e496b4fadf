// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"errors"
	"testing"
	"time"
)

// fakeScheduler is a minimal Scheduler used to exercise Event in
// isolation, without pulling in the real priority queue.
type fakeScheduler struct {
	now       time.Duration
	scheduled []*Event
	active    any
}

func (f *fakeScheduler) Now() time.Duration { return f.now }

func (f *fakeScheduler) Schedule(ev *Event, _ Priority, _ time.Duration) error {
	f.scheduled = append(f.scheduled, ev)
	return nil
}

func (f *fakeScheduler) SetActiveProcessHandle(p any) { f.active = p }
func (f *fakeScheduler) ActiveProcessHandle() any     { return f.active }

func TestEventLifecycle(t *testing.T) {
	env := &fakeScheduler{}
	ev := NewEvent(env, "test")

	if ev.Triggered() || ev.Processed() {
		t.Fatalf("new event should be neither triggered nor processed")
	}
	if _, err := ev.Value(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Value() on pending event = %v, want ErrNotReady", err)
	}

	if err := ev.Succeed("payload"); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	if !ev.Triggered() || !ev.Ok() {
		t.Fatalf("event should be triggered and ok after Succeed")
	}
	if len(env.scheduled) != 1 || env.scheduled[0] != ev {
		t.Fatalf("Succeed did not schedule the event")
	}

	v, err := ev.Value()
	if err != nil || v != "payload" {
		t.Fatalf("Value() = (%v, %v), want (payload, nil)", v, err)
	}

	if err := ev.Succeed("again"); !errors.Is(err, ErrAlreadyTriggered) {
		t.Fatalf("second Succeed = %v, want ErrAlreadyTriggered", err)
	}
	if err := ev.Fail(errors.New("boom")); !errors.Is(err, ErrAlreadyTriggered) {
		t.Fatalf("Fail on triggered event = %v, want ErrAlreadyTriggered", err)
	}
}

func TestEventFailRequiresError(t *testing.T) {
	env := &fakeScheduler{}
	ev := NewEvent(env, "test")

	if err := ev.Fail(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Fail(nil) = %v, want ErrInvalidArgument", err)
	}
}

func TestEventCallbacksAndProcessed(t *testing.T) {
	env := &fakeScheduler{}
	ev := NewEvent(env, "test")

	var got []*Event
	if _, err := ev.AddCallback(func(e *Event) { got = append(got, e) }); err != nil {
		t.Fatalf("AddCallback: %v", err)
	}

	snapshot := ev.MarkProcessed()
	if len(snapshot) != 1 {
		t.Fatalf("MarkProcessed snapshot len = %d, want 1", len(snapshot))
	}
	if !ev.Processed() {
		t.Fatalf("event should be processed")
	}
	if len(ev.Callbacks()) != 0 {
		t.Fatalf("callbacks should be cleared after MarkProcessed")
	}

	snapshot[0](ev)
	if len(got) != 1 || got[0] != ev {
		t.Fatalf("callback was not invoked with the event")
	}

	if _, err := ev.AddCallback(func(*Event) {}); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("AddCallback after processed = %v, want ErrAlreadyProcessed", err)
	}
}

func TestEventRemoveCallback(t *testing.T) {
	env := &fakeScheduler{}
	ev := NewEvent(env, "test")

	var fired []string
	id1, _ := ev.AddCallback(func(*Event) { fired = append(fired, "first") })
	_, _ = ev.AddCallback(func(*Event) { fired = append(fired, "second") })

	ev.RemoveCallback(id1)
	for _, cb := range ev.MarkProcessed() {
		cb(ev)
	}

	if len(fired) != 1 || fired[0] != "second" {
		t.Fatalf("fired = %v, want [second]", fired)
	}
}

func TestEventTrigger(t *testing.T) {
	env := &fakeScheduler{}
	src := NewEvent(env, "src")
	if err := src.Succeed(42); err != nil {
		t.Fatalf("Succeed: %v", err)
	}

	bridge := NewEvent(env, "bridge")
	if err := bridge.Trigger(src); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if v, _ := bridge.Value(); v != 42 {
		t.Fatalf("bridged value = %v, want 42", v)
	}

	failSrc := NewEvent(env, "failsrc")
	cause := errors.New("boom")
	_ = failSrc.Fail(cause)

	failBridge := NewEvent(env, "failbridge")
	if err := failBridge.Trigger(failSrc); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if failBridge.Ok() {
		t.Fatalf("bridged failure should not be ok")
	}
	if v, _ := failBridge.Value(); v != cause {
		t.Fatalf("bridged failure value = %v, want %v", v, cause)
	}
}

func TestInterruptCause(t *testing.T) {
	cause := errors.New("shutdown")
	i := NewInterrupt(cause)

	if !errors.Is(i, cause) {
		t.Fatalf("errors.Is(interrupt, cause) = false, want true")
	}
	if i.Cause() != cause {
		t.Fatalf("Cause() = %v, want %v", i.Cause(), cause)
	}
}
