// Copyright © by Jeff Foley 2023-2024. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"container/heap"
	"time"

	"github.com/desimgo/desim/types"
)

// entry is one item waiting in the scheduler's priority queue: an event
// that has already triggered but not yet been processed, keyed by the
// (time, priority, insertion order) tuple the spec requires for a
// deterministic dispatch order.
//
// container/heap, not github.com/caffix/queue, backs this structure —
// see DESIGN.md for why the teacher's priority-bucketed FIFO queue
// cannot provide a three-key (time, priority, sequence) ordering.
type entry struct {
	at       time.Duration
	priority types.Priority
	seq      uint64
	event    *types.Event
}

type eventHeap []entry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*eventHeap)(nil)
