// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"log/slog"
	"testing"

	"github.com/desimgo/desim/pubsub"
)

func TestWithLoggerBuffersDispatchRecords(t *testing.T) {
	buf := pubsub.NewLogger()
	env := NewEnvironment(WithLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	if _, err := env.Timeout(0, "payload"); err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if _, err := env.Run(RunForever()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if buf.Len() == 0 {
		t.Fatalf("expected the environment's dispatch to have logged at least one record")
	}
	msg, ok := buf.Next()
	if !ok || msg.Msg == "" {
		t.Fatalf("Next() = (%v, %v), want a non-empty message", msg, ok)
	}
}
