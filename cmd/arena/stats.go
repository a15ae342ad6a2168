/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"chainguard.dev/arena/report"
	"github.com/spf13/cobra"
)

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <model>",
		Short: "Print a model's wins, losses and ties against each opponent per judge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.model(ctx, args[0])
			if err != nil {
				return err
			}
			stats, err := a.store.HeadToHeadStats(ctx, a.project, m.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "## %s\n\n%s", m.Name, report.HeadToHeadStats(stats))
			return nil
		},
	}
}
