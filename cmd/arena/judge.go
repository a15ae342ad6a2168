/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/executor"
	"chainguard.dev/arena/report"
	"chainguard.dev/arena/task"
	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newJudgeCommand(a *app) *cobra.Command {
	var (
		names  []string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "judge <model>",
		Short: "Auto-judge a model against every other model in the project",
		Long: `Judge sends every head-to-head between the model's results and the other
models' results for the same prompts to the configured judges, stores the
verdicts as battles and recomputes the leaderboard.

Pairs a judge has already decided are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			serveMetrics(ctx, a.cfg.MetricsPort)

			m, err := a.model(ctx, args[0])
			if err != nil {
				return err
			}
			judges, err := a.roster.judges(ctx, a.cfg, names)
			if err != nil {
				return err
			}

			opts := []task.Option{
				task.WithExecutor(executor.Concurrent(a.cfg.Workers)),
				task.WithBatchSize(a.cfg.BatchSize),
				task.WithEloConfig(a.roster.Elo),
			}
			if strict {
				opts = append(opts, task.WithStrictVerdicts())
			}
			snap := task.NewManager(a.store, opts...).AutoJudge(ctx, a.project, m.ID, judges)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task %s %s\n", snap.ID, snap.State)
			for _, line := range snap.Status {
				fmt.Fprintf(out, "  %s\n", line)
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, report.Usage(judges))

			if snap.State == task.StateFailed {
				return fmt.Errorf("auto-judge failed: %s", snap.Status[len(snap.Status)-1])
			}
			return a.printLeaderboard(ctx, cmd)
		},
	}
	cmd.Flags().StringSliceVar(&names, "judge", nil, "Judges to use by name (default: every enabled judge)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail a whole batch when any verdict is invalid")
	return cmd
}

// model looks up a model of the project by name.
func (a *app) model(ctx context.Context, name string) (battle.Model, error) {
	models, err := a.store.Models(ctx, a.project)
	if err != nil {
		return battle.Model{}, err
	}
	for _, m := range models {
		if m.Name == name {
			return m, nil
		}
	}
	return battle.Model{}, fmt.Errorf("model %q not found in project %q", name, a.project)
}

func (a *app) printLeaderboard(ctx context.Context, cmd *cobra.Command) error {
	models, err := a.store.Models(ctx, a.project)
	if err != nil {
		return err
	}
	lb, err := a.store.Ratings(ctx, a.project)
	if err != nil {
		return err
	}
	points, err := a.store.Datapoints(ctx, a.project)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n## %s\n\n%s", a.project, report.Leaderboard(models, lb,
		report.WithConfidence(a.roster.Elo.Confidence),
		report.WithDatapoints(points)))
	return nil
}

// serveMetrics exposes the Prometheus registry on port until ctx is done.
// A zero port disables it.
func serveMetrics(ctx context.Context, port int) {
	if port == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.WarnContextf(ctx, "metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	clog.InfoContextf(ctx, "Serving metrics on :%d/metrics", port)
}
