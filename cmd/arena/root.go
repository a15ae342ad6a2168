/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"chainguard.dev/arena/store"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// app is the state shared by every command after the root pre-run.
type app struct {
	cfg     config
	roster  roster
	store   store.Interface
	project string
}

// execute runs the CLI with args and closes the store however the command
// ends.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if a.store != nil {
		err = errors.Join(err, a.store.Close())
	}
	return err
}

func newRootCommand(a *app) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "arena",
		Short: "Rank language models by pairwise LLM judging",
		Long: `Arena compares the outputs of several models on the same prompts.

Judges decide head-to-heads between responses and the decisions are
aggregated into an Elo leaderboard with bootstrap confidence intervals.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			ctx := clog.WithLogger(cmd.Context(), clog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			cmd.SetContext(ctx)

			if err := envconfig.Process(ctx, &a.cfg); err != nil {
				return err
			}
			r, err := loadRoster(a.cfg.Roster)
			if err != nil {
				return err
			}
			a.roster = r

			s, err := a.cfg.openStore(ctx)
			if err != nil {
				return err
			}
			a.store = s
			clog.FromContext(ctx).Debug("Configured", "db", a.cfg.DB, "roster", a.cfg.Roster, "judges", len(r.Judges))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&a.project, "project", "p", "default", "Project to operate on")

	cmd.AddCommand(
		newUploadCommand(a),
		newJudgeCommand(a),
		newRecomputeCommand(a),
		newSubmitCommand(a),
		newLeaderboardCommand(a),
		newStatsCommand(a),
		newTasksCommand(a),
	)
	return cmd
}
