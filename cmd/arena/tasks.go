/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"chainguard.dev/arena/report"
	"chainguard.dev/arena/task"
	"github.com/spf13/cobra"
)

func newTasksCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks [task-id]",
		Short: "List the project's tasks, or the status trail of one task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				updates, err := a.store.TaskUpdates(ctx, args[0])
				if err != nil {
					return err
				}
				if len(updates) == 0 {
					return fmt.Errorf("task %s not found", args[0])
				}
				for _, u := range updates {
					if u.Status == "" {
						continue
					}
					fmt.Fprintf(out, "%s %-9s %3.0f%% %s\n", u.Time.Format("15:04:05"), u.State, u.Progress*100, u.Status)
				}
				return nil
			}

			updates, err := a.store.ProjectTaskUpdates(ctx, a.project)
			if err != nil {
				return err
			}
			fmt.Fprint(out, report.Tasks(task.Replay(updates)))
			return nil
		},
	}
}
