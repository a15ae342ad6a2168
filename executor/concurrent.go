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
	"golang.org/x/sync/errgroup"
)

// Concurrent runs up to workers (judge, batch) pairs at once and yields
// results in completion order.
func Concurrent(workers int) Interface {
	return &concurrent{workers: max(workers, 1)}
}

type concurrent struct {
	workers int
}

// Execute implements Interface
func (c *concurrent) Execute(ctx context.Context, judges []judge.Interface, h2hs []battle.HeadToHead, batchSize int) iter.Seq[Result] {
	batches := Partition(h2hs, batchSize)
	var used atomic.Bool

	return func(yield func(Result) bool) {
		if used.Swap(true) {
			return
		}

		// Sized to hold every result so workers never block on a consumer
		// that stopped reading.
		results := make(chan Result, len(judges)*len(batches))

		go func() {
			var g errgroup.Group
			g.SetLimit(c.workers)
			for _, j := range judges {
				for i, batch := range batches {
					g.Go(func() error {
						results <- run(ctx, j, i, batch)
						return nil
					})
				}
			}
			_ = g.Wait()
			close(results)
		}()

		for r := range results {
			if !yield(r) {
				return
			}
		}
	}
}
