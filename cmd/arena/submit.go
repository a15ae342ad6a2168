/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"strconv"
	"strings"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/leaderboard"
	"github.com/spf13/cobra"
)

func newSubmitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <result-a> <result-b> <A|B|tie>",
		Short: "Record a human judgement between two results",
		Long: `Submit records which of two results better answers their shared prompt and
updates the leaderboard. Submitting the same pair again replaces the earlier
judgement.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var results [2]battle.Result
			for i, arg := range args[:2] {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("result ID %q: %w", arg, err)
				}
				if results[i], err = a.store.Result(ctx, id); err != nil {
					return err
				}
			}
			winner, err := parseWinner(args[2])
			if err != nil {
				return err
			}

			b, err := leaderboard.New(a.store, a.roster.Elo).SubmitJudgement(ctx, a.project, leaderboard.Judgement{
				ResultA: results[0],
				ResultB: results[1],
				Winner:  winner,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "battle %d: %s\n", b.ID, b.Key())
			return a.printLeaderboard(ctx, cmd)
		},
	}
}

func parseWinner(s string) (battle.Verdict, error) {
	switch strings.ToLower(s) {
	case "a":
		return battle.A, nil
	case "b":
		return battle.B, nil
	case "tie", "-":
		return battle.Tie, nil
	default:
		return "", fmt.Errorf("winner %q: want A, B or tie", s)
	}
}
