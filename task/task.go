/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package task runs auto-judging and leaderboard recomputation as trackable
// units of work with monotone progress and an append-only status trail.
package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// Type names the work a task performs.
type Type string

const (
	TypeAutoJudge            Type = "auto-judge"
	TypeRecomputeLeaderboard Type = "recompute-leaderboard"
)

// State is the lifecycle position of a task.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ErrIllegalTransition is returned when a task is moved to a state its current
// state cannot reach.
var ErrIllegalTransition = errors.New("illegal task state transition")

func allowed(from, to State) bool {
	switch from {
	case StatePending:
		return to == StateRunning || to == StateFailed
	case StateRunning:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}

// Update is one entry of a task's progress trail as reported to the store.
type Update struct {
	TaskID   string    `json:"task_id"`
	Project  string    `json:"project"`
	Type     Type      `json:"type"`
	State    State     `json:"state"`
	Progress float64   `json:"progress"`
	Status   string    `json:"status"`
	Time     time.Time `json:"time"`
}

// Reporter receives every task transition and status line.
type Reporter interface {
	ReportTaskProgress(ctx context.Context, u Update) error
}

// Snapshot is a point-in-time copy of a task.
type Snapshot struct {
	ID       string    `json:"id"`
	Project  string    `json:"project"`
	Type     Type      `json:"type"`
	State    State     `json:"state"`
	Progress float64   `json:"progress"`
	Status   []string  `json:"status"`
	Created  time.Time `json:"created"`
}

// Task is a unit of orchestrated work. It is safe for concurrent use.
type Task struct {
	reporter Reporter

	mu       sync.Mutex
	id       string
	project  string
	typ      Type
	state    State
	progress float64
	status   []string
	created  time.Time
}

// New creates a pending task that reports to r.
func New(project string, typ Type, r Reporter) *Task {
	return &Task{
		reporter: r,
		id:       uuid.NewString(),
		project:  project,
		typ:      typ,
		state:    StatePending,
		created:  time.Now().UTC(),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Snapshot returns a copy of the task's current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:       t.id,
		Project:  t.project,
		Type:     t.typ,
		State:    t.state,
		Progress: t.progress,
		Status:   slices.Clone(t.status),
		Created:  t.created,
	}
}

// Start moves a pending task to running.
func (t *Task) Start(ctx context.Context, status string) error {
	return t.transition(ctx, StateRunning, -1, status)
}

// Progress records how far a running task has come. Progress is clamped to
// [0, 1] and never moves backwards.
func (t *Task) Progress(ctx context.Context, progress float64, status string) error {
	return t.update(ctx, func() error {
		if t.state != StateRunning {
			return fmt.Errorf("%w: progress on %s task", ErrIllegalTransition, t.state)
		}
		t.progress = max(t.progress, min(max(progress, 0), 1))
		return nil
	}, status)
}

// Log appends a status line without changing progress.
func (t *Task) Log(ctx context.Context, status string) error {
	return t.Progress(ctx, 0, status)
}

// Complete finishes the task with progress 1.
func (t *Task) Complete(ctx context.Context, status string) error {
	return t.transition(ctx, StateCompleted, 1, status)
}

// Fail finishes the task with err as its last status line.
func (t *Task) Fail(ctx context.Context, err error) error {
	return t.transition(ctx, StateFailed, -1, fmt.Sprintf("failed: %v", err))
}

// transition moves to state, optionally pinning progress when it is not
// negative.
func (t *Task) transition(ctx context.Context, state State, progress float64, status string) error {
	return t.update(ctx, func() error {
		if !allowed(t.state, state) {
			return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, t.state, state)
		}
		t.state = state
		if progress >= 0 {
			t.progress = progress
		}
		return nil
	}, status)
}

// update applies mutate, appends status and reports the result. Reporting
// failures are logged and never fail the task.
func (t *Task) update(ctx context.Context, mutate func() error, status string) error {
	t.mu.Lock()
	if err := mutate(); err != nil {
		t.mu.Unlock()
		return err
	}
	if status != "" {
		t.status = append(t.status, status)
	}
	u := Update{
		TaskID:   t.id,
		Project:  t.project,
		Type:     t.typ,
		State:    t.state,
		Progress: t.progress,
		Status:   status,
		Time:     time.Now().UTC(),
	}
	t.mu.Unlock()

	log := clog.FromContext(ctx).With("task", u.TaskID).
		With("type", u.Type).
		With("state", u.State).
		With("progress", u.Progress)
	log.Debug(status)

	if t.reporter != nil {
		if err := t.reporter.ReportTaskProgress(ctx, u); err != nil {
			log.With("error", err.Error()).Warn("Failed to report task progress")
		}
	}
	return nil
}

// Replay folds reported updates back into snapshots, one per task in order of
// first appearance.
func Replay(updates []Update) []Snapshot {
	var out []Snapshot
	index := map[string]int{}
	for _, u := range updates {
		i, ok := index[u.TaskID]
		if !ok {
			i = len(out)
			index[u.TaskID] = i
			out = append(out, Snapshot{
				ID:      u.TaskID,
				Project: u.Project,
				Type:    u.Type,
				Created: u.Time,
			})
		}
		s := &out[i]
		s.State, s.Progress = u.State, u.Progress
		if u.Status != "" {
			s.Status = append(s.Status, u.Status)
		}
	}
	return out
}
