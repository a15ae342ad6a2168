/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"sync/atomic"

	"chainguard.dev/arena/battle"
)

// Interface is the contract shared by every judge backend and wrapper.
type Interface interface {
	// Name identifies the judge; battles are keyed by it.
	Name() string

	// Judge decides which response in h better answers the prompt.
	Judge(ctx context.Context, h battle.HeadToHead) (battle.Verdict, error)

	// JudgeBatch judges every head-to-head and returns exactly one verdict per
	// input, in input order. Per-item failures are reported as a *BatchError
	// alongside the full-length slice, with empty verdicts at failed indices.
	JudgeBatch(ctx context.Context, h2hs []battle.HeadToHead) ([]battle.Verdict, error)

	// Usage returns the cumulative counters for this judge.
	Usage() Usage
}

// Usage reports how much a judge has been used over its lifetime.
type Usage struct {
	Calls        int64 `json:"n_calls"`
	InputTokens  int64 `json:"total_input_tokens"`
	OutputTokens int64 `json:"total_output_tokens"`
}

// Counters accumulates Usage without lost updates under concurrent callers.
// The zero value is ready to use.
type Counters struct {
	calls        atomic.Int64
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// RecordCall counts one invocation and adds its token usage.
func (c *Counters) RecordCall(inputTokens, outputTokens int64) {
	c.calls.Add(1)
	c.inputTokens.Add(inputTokens)
	c.outputTokens.Add(outputTokens)
}

// Usage returns a snapshot of the counters.
func (c *Counters) Usage() Usage {
	return Usage{
		Calls:        c.calls.Load(),
		InputTokens:  c.inputTokens.Load(),
		OutputTokens: c.outputTokens.Load(),
	}
}

// JudgeEach implements JudgeBatch for j by judging each head-to-head in turn.
// Every item is attempted even when earlier items fail.
func JudgeEach(ctx context.Context, j Interface, h2hs []battle.HeadToHead) ([]battle.Verdict, error) {
	verdicts := make([]battle.Verdict, len(h2hs))
	var failures []ItemError
	for i, h := range h2hs {
		v, err := j.Judge(ctx, h)
		if err != nil {
			failures = append(failures, ItemError{Index: i, Err: err})
			continue
		}
		verdicts[i] = v
	}
	if len(failures) > 0 {
		return verdicts, &BatchError{Judge: j.Name(), Size: len(h2hs), Items: failures}
	}
	return verdicts, nil
}
