/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"context"
	"iter"
	"sync/atomic"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/judge"
)

// Sequential runs one batch at a time, every batch of the first judge before
// the second judge. Results are yielded in that order.
func Sequential() Interface { return sequential{} }

type sequential struct{}

// Execute implements Interface
func (sequential) Execute(ctx context.Context, judges []judge.Interface, h2hs []battle.HeadToHead, batchSize int) iter.Seq[Result] {
	batches := Partition(h2hs, batchSize)
	var used atomic.Bool

	return func(yield func(Result) bool) {
		if used.Swap(true) {
			return
		}
		for _, j := range judges {
			for i, batch := range batches {
				if !yield(run(ctx, j, i, batch)) {
					return
				}
			}
		}
	}
}
