/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"context"
	"errors"

	"chainguard.dev/arena/judge"
	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeFailure = "failure"
)

var batchCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "arena_executor_batches_total",
		Help: "Total number of (judge, batch) pairs executed",
	},
	[]string{"judge", "outcome"},
)

var tracer = otel.Tracer("chainguard.dev/arena/executor",
	trace.WithInstrumentationVersion("1.0.0"))

func startSpan(ctx context.Context, judgeName string, index, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "executor.batch", trace.WithAttributes(
		attribute.String("arena.judge", judgeName),
		attribute.Int("arena.batch.index", index),
		attribute.Int("arena.batch.size", size),
	))
}

func outcome(r Result) string {
	if r.Err == nil {
		return outcomeSuccess
	}
	var be *judge.BatchError
	if errors.As(r.Err, &be) && r.Verdicts != nil && len(be.Items) < len(r.Batch) {
		return outcomePartial
	}
	return outcomeFailure
}

// observe records the result on the span, the counters and the log, then
// ends the span.
func observe(ctx context.Context, span trace.Span, r Result) {
	defer span.End()

	o := outcome(r)
	name := r.Judge.Name()
	batchCounter.WithLabelValues(name, o).Inc()
	span.SetAttributes(attribute.String("arena.batch.outcome", o))

	log := clog.FromContext(ctx).With("judge", name).
		With("batch", r.Index).
		With("size", len(r.Batch))
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, o)
		log.With("outcome", o).With("error", r.Err.Error()).Warn("Batch failed")
		return
	}
	span.SetStatus(codes.Ok, "")
	log.Debug("Batch judged")
}
