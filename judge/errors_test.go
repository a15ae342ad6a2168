/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

func TestTransient(t *testing.T) {
	t.Parallel()

	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}

	base := errors.New("rate limited")
	err := fmt.Errorf("calling service: %w", Transient(base))
	if !errors.Is(err, ErrTransient) {
		t.Error("wrapped transient error should match ErrTransient")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped transient error should match the original error")
	}
	if got, want := Transient(base).Error(), "rate limited"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "plain error", err: errors.New("bad request"), want: false},
		{name: "transient", err: Transient(errors.New("overloaded")), want: true},
		{name: "unparseable", err: fmt.Errorf("%w: %q", ErrUnparseable, "maybe"), want: true},
		{name: "config", err: fmt.Errorf("%w: missing key", ErrConfig), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyAnthropic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "non-API error", err: errors.New("connection refused"), want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "408 request timeout", err: &anthropic.Error{StatusCode: 408}, want: true},
		{name: "429 rate limit", err: &anthropic.Error{StatusCode: 429}, want: true},
		{name: "500 internal error", err: &anthropic.Error{StatusCode: 500}, want: true},
		{name: "529 overloaded", err: &anthropic.Error{StatusCode: 529}, want: true},
		{name: "400 bad request", err: &anthropic.Error{StatusCode: 400}, want: false},
		{name: "401 unauthorized", err: &anthropic.Error{StatusCode: 401}, want: false},
		{name: "404 not found", err: &anthropic.Error{StatusCode: 404}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := errors.Is(classifyAnthropic(context.Background(), tt.err), ErrTransient)
			if got != tt.want {
				t.Errorf("classifyAnthropic() transient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyOpenAI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "non-API error", err: errors.New("no such host"), want: false},
		{name: "429 rate limit", err: &openai.Error{StatusCode: 429}, want: true},
		{name: "502 bad gateway", err: &openai.Error{StatusCode: 502}, want: true},
		{name: "403 forbidden", err: &openai.Error{StatusCode: 403}, want: false},
		{name: "422 unprocessable", err: &openai.Error{StatusCode: 422}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := errors.Is(classifyOpenAI(context.Background(), tt.err), ErrTransient)
			if got != tt.want {
				t.Errorf("classifyOpenAI() transient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyGemini(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "resource exhausted", err: errors.New("Error 429, Message: Resource exhausted"), want: true},
		{name: "unavailable", err: errors.New("rpc error: code = UNAVAILABLE"), want: true},
		{name: "overloaded", err: errors.New("The model is Overloaded"), want: true},
		{name: "invalid argument", err: errors.New("Error 400, Message: INVALID_ARGUMENT"), want: false},
		{name: "permission denied", err: errors.New("PERMISSION_DENIED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := errors.Is(classifyGemini(context.Background(), tt.err), ErrTransient)
			if got != tt.want {
				t.Errorf("classifyGemini(%q) transient = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyCallerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if errors.Is(classify(ctx, context.DeadlineExceeded), ErrTransient) {
		t.Error("errors after the caller gave up should not be transient")
	}
}

func TestBatchError(t *testing.T) {
	t.Parallel()

	err := &BatchError{
		Judge: "claude",
		Size:  3,
		Items: []ItemError{
			{Index: 1, Err: fmt.Errorf("%w: %q", ErrUnparseable, "hmm")},
		},
	}

	if !errors.Is(err, ErrUnparseable) {
		t.Error("BatchError should expose item errors to errors.Is")
	}
	if !err.Failed(1) || err.Failed(0) || err.Failed(2) {
		t.Error("Failed() should report only index 1")
	}
	if got, want := err.Error(), `judge claude: 1 of 3 verdicts failed (first: item 1: unparseable verdict: "hmm")`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
