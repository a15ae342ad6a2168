/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor runs judges over batches of head-to-heads and streams the
// results back as they complete.
package executor

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/judge"
)

// Interface runs every (judge, batch) pair exactly once.
type Interface interface {
	// Execute partitions h2hs into batches of at most batchSize and judges
	// each batch with each judge. The returned sequence can be consumed once;
	// a consumer that stops early leaves in-flight calls to finish and their
	// results are discarded.
	Execute(ctx context.Context, judges []judge.Interface, h2hs []battle.HeadToHead, batchSize int) iter.Seq[Result]
}

// Result is the outcome of one judge on one batch.
type Result struct {
	Judge judge.Interface
	// Index is the position of the batch in the partition.
	Index    int
	Batch    []battle.HeadToHead
	Verdicts []battle.Verdict
	// Err is an *Error when the batch failed. Verdicts are kept for the items
	// that succeeded when the judge reported a *judge.BatchError.
	Err error
}

// Error is a failed (judge, batch) pair.
type Error struct {
	Judge string
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("judge %s, batch %d: %v", e.Judge, e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// BatchCount returns the number of batches Partition produces for n items.
func BatchCount(n, size int) int {
	size = max(size, 1)
	return max(1, (n+size-1)/size)
}

// Partition splits h2hs into contiguous batches of at most size items.
// It always returns at least one batch, which is empty when h2hs is.
func Partition(h2hs []battle.HeadToHead, size int) [][]battle.HeadToHead {
	size = max(size, 1)
	batches := make([][]battle.HeadToHead, 0, BatchCount(len(h2hs), size))
	for start := 0; start < len(h2hs); start += size {
		batches = append(batches, h2hs[start:min(start+size, len(h2hs))])
	}
	if len(batches) == 0 {
		batches = append(batches, h2hs[:0:0])
	}
	return batches
}

// run judges one batch. It never panics.
func run(ctx context.Context, j judge.Interface, index int, batch []battle.HeadToHead) (r Result) {
	ctx, span := startSpan(ctx, j.Name(), index, len(batch))
	r = Result{Judge: j, Index: index, Batch: batch}

	defer func() {
		if p := recover(); p != nil {
			r.Verdicts = nil
			r.Err = &Error{Judge: j.Name(), Index: index, Err: fmt.Errorf("judge panicked: %v", p)}
		}
		observe(ctx, span, r)
	}()

	verdicts, err := j.JudgeBatch(ctx, batch)

	var be *judge.BatchError
	switch {
	case err == nil && len(verdicts) != len(batch):
		err = fmt.Errorf("judge returned %d verdicts for %d head-to-heads", len(verdicts), len(batch))
		verdicts = nil
	case errors.As(err, &be) && len(verdicts) == len(batch):
		// Keep the verdicts for items that succeeded.
	case err != nil:
		verdicts = nil
	}

	r.Verdicts = verdicts
	if err != nil {
		r.Err = &Error{Judge: j.Name(), Index: index, Err: err}
	}
	return r
}
