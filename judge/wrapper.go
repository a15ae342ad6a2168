/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/retry"
)

// Wrapper decorates a judge while preserving its contract.
type Wrapper func(Interface) Interface

// Wrap applies wrappers to j in order; the first wrapper is innermost.
func Wrap(j Interface, wrappers ...Wrapper) Interface {
	for _, w := range wrappers {
		j = w(j)
	}
	return j
}

// DefaultWrappers cleans raw output and retries both transient failures and
// unparseable output against the backend.
func DefaultWrappers() []Wrapper {
	return []Wrapper{Cleaning(), Retrying(retry.DefaultConfig())}
}

// Retrying retries transient and unparseable failures of the wrapped judge
// with the same input. Whatever still fails is tagged with ErrJudging.
func Retrying(cfg retry.Config) Wrapper {
	return func(inner Interface) Interface {
		return &retrying{Interface: inner, cfg: cfg}
	}
}

type retrying struct {
	Interface
	cfg retry.Config
}

// Judge implements Interface
func (r *retrying) Judge(ctx context.Context, h battle.HeadToHead) (battle.Verdict, error) {
	v, err := retry.Do(ctx, r.cfg, "judge "+r.Name(), IsRetryable, func(int) (battle.Verdict, error) {
		return r.Interface.Judge(ctx, h)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrJudging, r.Name(), err)
	}
	return v, nil
}

// JudgeBatch implements Interface
func (r *retrying) JudgeBatch(ctx context.Context, h2hs []battle.HeadToHead) ([]battle.Verdict, error) {
	return JudgeEach(ctx, r, h2hs)
}

// Cleaning maps the free-text output of the wrapped judge to a canonical
// verdict, failing with ErrUnparseable when no known shape matches.
func Cleaning() Wrapper {
	return func(inner Interface) Interface {
		return &cleaning{Interface: inner}
	}
}

type cleaning struct {
	Interface
}

// Judge implements Interface
func (c *cleaning) Judge(ctx context.Context, h battle.HeadToHead) (battle.Verdict, error) {
	raw, err := c.Interface.Judge(ctx, h)
	if err != nil {
		return "", err
	}
	return Clean(string(raw))
}

// JudgeBatch implements Interface
func (c *cleaning) JudgeBatch(ctx context.Context, h2hs []battle.HeadToHead) ([]battle.Verdict, error) {
	return JudgeEach(ctx, c, h2hs)
}

var (
	// A leading A or B, optionally introduced by a label, and not the start
	// of a longer word ("Apple", "AB").
	leadingVerdict = regexp.MustCompile(`^(?:(?i:answer|assistant|response|winner|verdict|choice)\s*[:=\-]?\s*)?[(\[]?([AB])[)\]]?(?:$|[^A-Za-z0-9])`)

	tieVerdict = regexp.MustCompile(`^(?:-+$|(?i:tie|draw|neither|both|equal|same)\b)`)
)

// Clean extracts a canonical verdict from raw judge output.
func Clean(raw string) (battle.Verdict, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "*_`\"' \t\r\n")
	s = strings.TrimRight(s, ".!")

	if m := leadingVerdict.FindStringSubmatch(s); m != nil {
		return battle.Verdict(m[1]), nil
	}
	if tieVerdict.MatchString(s) {
		return battle.Tie, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnparseable, truncate(raw, 64))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
