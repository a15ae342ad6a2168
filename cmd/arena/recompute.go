/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"

	"chainguard.dev/arena/task"
	"github.com/spf13/cobra"
)

func newRecomputeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the leaderboard from every stored battle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snap := task.NewManager(a.store, task.WithEloConfig(a.roster.Elo)).RecomputeLeaderboard(ctx, a.project)
			fmt.Fprintf(cmd.OutOrStdout(), "task %s %s: %s\n", snap.ID, snap.State, snap.Status[len(snap.Status)-1])
			if snap.State == task.StateFailed {
				return errors.New("recompute failed")
			}
			return a.printLeaderboard(ctx, cmd)
		},
	}
}
