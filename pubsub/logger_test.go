// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package pubsub_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/desimgo/desim/pubsub"
)

func TestPublishAndNext(t *testing.T) {
	l := pubsub.NewLogger()

	l.Publish("first")
	l.Publish("second")

	msg, ok := l.Next()
	if !ok || msg.Msg != "first" {
		t.Fatalf("Next() = (%v, %v), want (first, true)", msg, ok)
	}
	msg, ok = l.Next()
	if !ok || msg.Msg != "second" {
		t.Fatalf("Next() = (%v, %v), want (second, true)", msg, ok)
	}
	if _, ok := l.Next(); ok {
		t.Fatalf("Next() on an empty buffer should report false")
	}
}

func TestWriteFeedsSlog(t *testing.T) {
	l := pubsub.NewLogger()
	logger := slog.New(slog.NewTextHandler(l, nil))

	logger.Info("dispatching event", "name", "timeout")

	select {
	case <-l.Signal():
	case <-time.After(time.Second):
		t.Fatalf("Signal() never fired after a write")
	}

	msg, ok := l.Next()
	if !ok {
		t.Fatalf("expected a buffered message")
	}
	if msg.Msg == "" {
		t.Fatalf("buffered message was empty")
	}
}

func TestDrain(t *testing.T) {
	l := pubsub.NewLogger()
	for _, m := range []string{"a", "b", "c"} {
		l.Publish(m)
	}

	var got []string
	l.Drain(func(m *pubsub.LogMessage) { got = append(got, m.Msg) })

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("Drain order = %v, want [a b c]", got)
	}
	if l.Len() != 0 {
		t.Fatalf("buffer should be empty after Drain")
	}
}
