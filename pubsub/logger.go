// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package pubsub buffers log records emitted by a running simulation so
// a caller can drain them on its own schedule instead of blocking the
// dispatch loop on an attached writer.
package pubsub

import (
	"github.com/caffix/queue"
)

// LogMessage is one buffered log record.
type LogMessage struct {
	Msg string
}

// Logger is an io.Writer that queues whatever is written to it instead
// of writing synchronously, so it can sit behind a slog.Handler
// (slog.New(slog.NewTextHandler(logger, nil)), the teacher's own idiom
// in cmd/amass_engine/main.go) without the scheduler's dispatch loop
// ever blocking on downstream log consumption.
type Logger struct {
	q queue.Queue
}

// NewLogger returns an empty Logger.
func NewLogger() *Logger {
	return &Logger{q: queue.NewQueue()}
}

// Publish appends msg to the buffer.
func (l *Logger) Publish(msg string) {
	l.q.Append(&LogMessage{Msg: msg})
}

// Write implements io.Writer by publishing p as a single message,
// letting a slog.Handler use a Logger as its output sink.
func (l *Logger) Write(p []byte) (int, error) {
	l.Publish(string(p))
	return len(p), nil
}

// Signal returns a channel that becomes readable whenever the buffer is
// non-empty.
func (l *Logger) Signal() <-chan struct{} {
	return l.q.Signal()
}

// Next pops the oldest buffered message. The second return value is
// false if the buffer is empty.
func (l *Logger) Next() (*LogMessage, bool) {
	v, ok := l.q.Next()
	if !ok {
		return nil, false
	}
	return v.(*LogMessage), true
}

// Drain invokes fn once for every message currently buffered, oldest
// first, leaving the buffer empty.
func (l *Logger) Drain(fn func(*LogMessage)) {
	l.q.Process(func(v any) {
		fn(v.(*LogMessage))
	})
}

// Len reports how many messages are currently buffered.
func (l *Logger) Len() int {
	return l.q.Len()
}
