/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"github.com/spf13/cobra"
)

func newLeaderboardCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the stored leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printLeaderboard(cmd.Context(), cmd)
		},
	}
}
