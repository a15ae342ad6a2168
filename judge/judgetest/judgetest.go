/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judgetest provides scripted judges for testing code that drives
// judge.Interface without calling a real service.
package judgetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/judge"
)

// Func decides a head-to-head. It plays the role of the remote service and
// may return raw, uncleaned text.
type Func func(h battle.HeadToHead) (string, error)

// Judge is a deterministic judge.Interface. It is safe for concurrent use.
type Judge struct {
	name     string
	decide   Func
	delay    func(battle.HeadToHead) time.Duration
	counters judge.Counters

	mu       sync.Mutex
	failures int
	failErr  error
	seen     []battle.HeadToHead
}

var _ judge.Interface = (*Judge)(nil)

// Option configures a Judge.
type Option func(*Judge)

// WithDelay sleeps before answering, which lets tests force batches to
// complete out of order.
func WithDelay(delay func(battle.HeadToHead) time.Duration) Option {
	return func(j *Judge) { j.delay = delay }
}

// WithFailures makes the first n calls fail with err.
func WithFailures(n int, err error) Option {
	return func(j *Judge) {
		j.failures = n
		j.failErr = err
	}
}

// New returns a judge named name that answers with decide.
func New(name string, decide Func, opts ...Option) *Judge {
	j := &Judge{name: name, decide: decide}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Fixed returns a judge that always answers v.
func Fixed(name string, v battle.Verdict) *Judge {
	return New(name, func(battle.HeadToHead) (string, error) { return string(v), nil })
}

// Prefer returns a judge that picks the response equal to want, and a tie
// when neither or both match.
func Prefer(name, want string) *Judge {
	return New(name, func(h battle.HeadToHead) (string, error) {
		a := strings.TrimSpace(h.ResultA.Response) == want
		b := strings.TrimSpace(h.ResultB.Response) == want
		switch {
		case a && !b:
			return string(battle.A), nil
		case b && !a:
			return string(battle.B), nil
		default:
			return string(battle.Tie), nil
		}
	})
}

// Name implements judge.Interface
func (j *Judge) Name() string { return j.name }

// Usage implements judge.Interface
func (j *Judge) Usage() judge.Usage { return j.counters.Usage() }

// Judge implements judge.Interface
func (j *Judge) Judge(ctx context.Context, h battle.HeadToHead) (battle.Verdict, error) {
	if j.delay != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(j.delay(h)):
		}
	}

	j.mu.Lock()
	j.seen = append(j.seen, h)
	fail := j.failures > 0
	if fail {
		j.failures--
	}
	j.mu.Unlock()

	if fail {
		j.counters.RecordCall(0, 0)
		return "", j.failErr
	}

	out, err := j.decide(h)
	if err != nil {
		j.counters.RecordCall(0, 0)
		return "", err
	}
	j.counters.RecordCall(words(h.Prompt(), h.ResultA.Response, h.ResultB.Response), words(out))
	return battle.Verdict(out), nil
}

// JudgeBatch implements judge.Interface
func (j *Judge) JudgeBatch(ctx context.Context, h2hs []battle.HeadToHead) ([]battle.Verdict, error) {
	return judge.JudgeEach(ctx, j, h2hs)
}

// Seen returns the head-to-heads the judge was asked about, in call order.
func (j *Judge) Seen() []battle.HeadToHead {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]battle.HeadToHead(nil), j.seen...)
}

// words approximates token usage.
func words(texts ...string) int64 {
	var n int64
	for _, t := range texts {
		n += int64(len(strings.Fields(t)))
	}
	return n
}
