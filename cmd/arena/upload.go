/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"

	"chainguard.dev/arena/store"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <model> <results.yaml>",
		Short: "Add a model and its responses to the project",
		Long: `Upload reads a YAML or JSON list of {prompt, response} objects and stores
them as the results of a new model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var results []store.ResultInput
			if err := yaml.Unmarshal(data, &results); err != nil {
				return fmt.Errorf("parsing %s: %w", args[1], err)
			}
			for i, r := range results {
				if r.Prompt == "" {
					return fmt.Errorf("%s: result %d has no prompt", args[1], i)
				}
			}

			m, err := a.store.CreateModel(ctx, a.project, args[0], results)
			if err != nil {
				return err
			}
			clog.InfoContextf(ctx, "Uploaded %d result(s) for model %q", len(results), m.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "model %d: %s (%d results)\n", m.ID, m.Name, len(results))
			return nil
		},
	}
}
