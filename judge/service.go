/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"fmt"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/metrics"
	"github.com/chainguard-dev/clog"
)

// completion is one round trip to a judge service.
type completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// completer sends a system and user message to a service and returns its
// raw text. Implementations classify retryable failures with Transient.
type completer func(ctx context.Context, system, user string) (completion, error)

// service adapts a completer to Interface. It returns the raw text as the
// verdict; wrap it with Cleaning to get canonical verdicts.
type service struct {
	cfg      Config
	complete completer
	counters Counters
	metrics  *metrics.Judge
}

// Option configures a judge created by New.
type Option func(*options)

type options struct {
	wrappers []Wrapper
	metrics  *metrics.Judge
}

// WithWrappers applies wrappers, first innermost, to the backend.
func WithWrappers(wrappers ...Wrapper) Option {
	return func(o *options) { o.wrappers = append(o.wrappers, wrappers...) }
}

// WithMetrics records calls and token usage on m.
func WithMetrics(m *metrics.Judge) Option {
	return func(o *options) { o.metrics = m }
}

// New creates the backend selected by cfg.Type and applies the configured
// wrappers.
func New(ctx context.Context, cfg Config, opts ...Option) (Interface, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		complete completer
		err      error
	)
	switch cfg.Type {
	case TypeAnthropic:
		complete = newAnthropic(cfg)
	case TypeOpenAI, TypeOllama, TypeTogether:
		complete = newOpenAI(cfg)
	case TypeGemini:
		complete, err = newGemini(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s judge %q: %w", cfg.Type, cfg.Name, err)
	}
	return newService(cfg, complete, opts...), nil
}

func newService(cfg Config, complete completer, opts ...Option) Interface {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	s := &service{
		cfg:      cfg.withDefaults(),
		complete: complete,
		metrics:  o.metrics,
	}
	return Wrap(s, o.wrappers...)
}

// Name implements Interface
func (s *service) Name() string { return s.cfg.Name }

// Usage implements Interface
func (s *service) Usage() Usage { return s.counters.Usage() }

// Judge implements Interface
func (s *service) Judge(ctx context.Context, h battle.HeadToHead) (battle.Verdict, error) {
	user, err := renderHeadToHead(h)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	c, err := s.complete(ctx, s.cfg.SystemPrompt, user)
	if err != nil {
		s.counters.RecordCall(0, 0)
		s.metrics.RecordCall(ctx, s.cfg.Name, s.cfg.Model, 0, 0)
		return "", err
	}
	s.counters.RecordCall(c.InputTokens, c.OutputTokens)
	s.metrics.RecordCall(ctx, s.cfg.Name, s.cfg.Model, c.InputTokens, c.OutputTokens)

	clog.FromContext(ctx).With("judge", s.cfg.Name).
		With("result_a", h.ResultA.ID).
		With("result_b", h.ResultB.ID).
		With("input_tokens", c.InputTokens).
		With("output_tokens", c.OutputTokens).
		Debug("Judge responded")

	return battle.Verdict(c.Text), nil
}

// JudgeBatch implements Interface
func (s *service) JudgeBatch(ctx context.Context, h2hs []battle.HeadToHead) ([]battle.Verdict, error) {
	return JudgeEach(ctx, s, h2hs)
}
