/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package store defines the persistence shared by the in-memory and DuckDB
// backends.
package store

import (
	"context"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/task"
)

// ResultInput is one prompt and a model's response to it.
type ResultInput struct {
	Prompt   string `json:"prompt" yaml:"prompt"`
	Response string `json:"response" yaml:"response"`
}

// HeadToHeadStats tallies one model's battles against another model under
// one judge.
type HeadToHeadStats struct {
	OtherModelID int64  `json:"other_model_id"`
	OtherModel   string `json:"other_model"`
	Judge        string `json:"judge"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Ties         int    `json:"ties"`
}

// Interface is a complete arena store.
type Interface interface {
	task.Store

	// CreateModel adds a model and its results to project. Model names are
	// unique within a project.
	CreateModel(ctx context.Context, project, name string, results []ResultInput) (battle.Model, error)
	// Results returns a model's results ordered by ID.
	Results(ctx context.Context, modelID int64) ([]battle.Result, error)
	// Result returns a result by ID.
	Result(ctx context.Context, id int64) (battle.Result, error)
	// Datapoints counts the results of each model in project. Models without
	// results are present with zero.
	Datapoints(ctx context.Context, project string) (map[int64]int, error)
	// HeadToHeadStats tallies modelID's battles in project by opponent and
	// judge, ordered by opponent ID then judge.
	HeadToHeadStats(ctx context.Context, project string, modelID int64) ([]HeadToHeadStats, error)
	// TaskUpdates returns a task's reported updates in report order.
	TaskUpdates(ctx context.Context, taskID string) ([]task.Update, error)
	// ProjectTaskUpdates returns every update of the project's tasks in
	// report order.
	ProjectTaskUpdates(ctx context.Context, project string) ([]task.Update, error)

	Close() error
}
