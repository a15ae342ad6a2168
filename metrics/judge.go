/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics exports OpenTelemetry instruments for judge usage.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is shared by every judge backend; the judge and model names are
// dimensions on the recorded values.
const MeterName = "chainguard.dev/arena/judge"

// Judge records calls and token usage for judge backends.
// A nil *Judge is valid and records nothing.
type Judge struct {
	calls        metric.Int64Counter
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
}

// NewJudge creates the judge instruments on the global meter provider.
// Instruments that fail to register degrade to no-ops with a warning.
func NewJudge() *Judge {
	return newJudge(otel.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0")))
}

func newJudge(meter metric.Meter) *Judge {
	return &Judge{
		calls:        counter(meter, "arena.judge.calls", "Number of judge service invocations", "{calls}"),
		inputTokens:  counter(meter, "arena.judge.tokens.input", "Prompt tokens sent to judge services", "{tokens}"),
		outputTokens: counter(meter, "arena.judge.tokens.output", "Completion tokens returned by judge services", "{tokens}"),
	}
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metric will be disabled", "error", err, "name", name)
		return noop.Int64Counter{}
	}
	return c
}

// RecordCall records one judge invocation and its token usage.
func (m *Judge) RecordCall(ctx context.Context, judge, model string, inputTokens, outputTokens int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("judge", judge),
		attribute.String("model", model),
	)
	m.calls.Add(ctx, 1, attrs)
	m.inputTokens.Add(ctx, inputTokens, attrs)
	m.outputTokens.Add(ctx, outputTokens, attrs)
}
