/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package memstore is an in-memory store for projects, models, results,
// battles, ratings and task progress.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/task"
)

// Store keeps everything in memory. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	nextModel  int64
	nextResult int64
	nextBattle int64

	models  map[int64]battle.Model
	results map[int64]battle.Result
	// battles by project, keyed by (judge, unordered pair).
	battles map[string]map[battle.Key]battle.Battle
	ratings map[string]elo.Leaderboard
	updates []task.Update
}

var _ store.Interface = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		models:  map[int64]battle.Model{},
		results: map[int64]battle.Result{},
		battles: map[string]map[battle.Key]battle.Battle{},
		ratings: map[string]elo.Leaderboard{},
	}
}

// CreateModel implements store.Interface
func (s *Store) CreateModel(_ context.Context, project, name string, results []store.ResultInput) (battle.Model, error) {
	if project == "" || name == "" {
		return battle.Model{}, errors.New("project and model name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.models {
		if m.Project == project && m.Name == name {
			return battle.Model{}, fmt.Errorf("model %q already exists in project %q", name, project)
		}
	}

	s.nextModel++
	m := battle.Model{ID: s.nextModel, Project: project, Name: name}
	s.models[m.ID] = m
	for _, r := range results {
		s.nextResult++
		s.results[s.nextResult] = battle.Result{
			ID:       s.nextResult,
			ModelID:  m.ID,
			Prompt:   r.Prompt,
			Response: r.Response,
		}
	}
	return m, nil
}

// Models implements leaderboard.Store
func (s *Store) Models(_ context.Context, project string) ([]battle.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []battle.Model
	for _, m := range s.models {
		if m.Project == project {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b battle.Model) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Results implements store.Interface
func (s *Store) Results(_ context.Context, modelID int64) ([]battle.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultsOf(modelID), nil
}

func (s *Store) resultsOf(modelID int64) []battle.Result {
	var out []battle.Result
	for _, r := range s.results {
		if r.ModelID == modelID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b battle.Result) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Result implements store.Interface
func (s *Store) Result(_ context.Context, id int64) (battle.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return battle.Result{}, fmt.Errorf("result %d not found", id)
	}
	return r, nil
}

// Datapoints implements store.Interface
func (s *Store) Datapoints(_ context.Context, project string) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]int{}
	for id, m := range s.models {
		if m.Project == project {
			out[id] = 0
		}
	}
	for _, r := range s.results {
		if _, ok := out[r.ModelID]; ok {
			out[r.ModelID]++
		}
	}
	return out, nil
}

// HeadToHeadStats implements store.Interface
func (s *Store) HeadToHeadStats(_ context.Context, project string, modelID int64) ([]store.HeadToHeadStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.models[modelID]; !ok || m.Project != project {
		return nil, fmt.Errorf("model %d not found in project %q", modelID, project)
	}

	type key struct {
		other int64
		judge string
	}
	tally := map[key]*store.HeadToHeadStats{}
	for _, b := range s.battles[project] {
		// Seen from modelID's side.
		other, verdict := b.ModelB, b.Winner
		switch modelID {
		case b.ModelA:
		case b.ModelB:
			other, verdict = b.ModelA, b.Winner.Flip()
		default:
			continue
		}
		k := key{other: other, judge: b.Judge}
		st, ok := tally[k]
		if !ok {
			st = &store.HeadToHeadStats{OtherModelID: other, OtherModel: s.models[other].Name, Judge: b.Judge}
			tally[k] = st
		}
		switch verdict {
		case battle.A:
			st.Wins++
		case battle.B:
			st.Losses++
		default:
			st.Ties++
		}
	}

	var out []store.HeadToHeadStats
	for _, st := range tally {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b store.HeadToHeadStats) int {
		return cmp.Or(cmp.Compare(a.OtherModelID, b.OtherModelID), cmp.Compare(a.Judge, b.Judge))
	})
	return out, nil
}

// UnjudgedHeadToHeads implements task.Store
func (s *Store) UnjudgedHeadToHeads(_ context.Context, project string, modelID int64, judge string) ([]battle.HeadToHead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[modelID]
	if !ok || m.Project != project {
		return nil, fmt.Errorf("model %d not found in project %q", modelID, project)
	}

	// Index the other models' results by prompt.
	byPrompt := map[string][]battle.Result{}
	for _, other := range slices.Sorted(maps.Keys(s.models)) {
		if other == modelID || s.models[other].Project != project {
			continue
		}
		for _, r := range s.resultsOf(other) {
			byPrompt[r.Prompt] = append(byPrompt[r.Prompt], r)
		}
	}

	judged := s.battles[project]
	var out []battle.HeadToHead
	for _, mine := range s.resultsOf(modelID) {
		for _, theirs := range byPrompt[mine.Prompt] {
			h := battle.HeadToHead{ResultA: mine, ResultB: theirs}
			if _, done := judged[h.Key(judge)]; done {
				continue
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// PutBattle implements leaderboard.Store
func (s *Store) PutBattle(_ context.Context, project string, b battle.Battle) (battle.Battle, error) {
	b = b.Normalize()
	if err := b.Validate(); err != nil {
		return battle.Battle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.battles[project]
	if !ok {
		byKey = map[battle.Key]battle.Battle{}
		s.battles[project] = byKey
	}
	if prev, ok := byKey[b.Key()]; ok {
		b.ID = prev.ID
	} else {
		s.nextBattle++
		b.ID = s.nextBattle
	}
	byKey[b.Key()] = b
	return b, nil
}

// Battles implements leaderboard.Store
func (s *Store) Battles(_ context.Context, project string) ([]battle.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Collect(maps.Values(s.battles[project]))
	elo.CanonicalOrder(out)
	return out, nil
}

// PutRatings implements leaderboard.Store
func (s *Store) PutRatings(_ context.Context, project string, lb elo.Leaderboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[project] = cloneLeaderboard(lb)
	return nil
}

// Ratings implements leaderboard.Store
func (s *Store) Ratings(_ context.Context, project string) (elo.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLeaderboard(s.ratings[project]), nil
}

// ReportTaskProgress implements task.Reporter
func (s *Store) ReportTaskProgress(_ context.Context, u task.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
	return nil
}

// TaskUpdates implements store.Interface
func (s *Store) TaskUpdates(_ context.Context, taskID string) ([]task.Update, error) {
	return s.filterUpdates(func(u task.Update) bool { return u.TaskID == taskID }), nil
}

// ProjectTaskUpdates implements store.Interface
func (s *Store) ProjectTaskUpdates(_ context.Context, project string) ([]task.Update, error) {
	return s.filterUpdates(func(u task.Update) bool { return u.Project == project }), nil
}

func (s *Store) filterUpdates(keep func(task.Update) bool) []task.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Update
	for _, u := range s.updates {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// Close implements store.Interface
func (s *Store) Close() error { return nil }

func cloneLeaderboard(lb elo.Leaderboard) elo.Leaderboard {
	out := make(elo.Leaderboard, len(lb))
	for id, r := range lb {
		if r.Interval != nil {
			iv := *r.Interval
			r.Interval = &iv
		}
		out[id] = r
	}
	return out
}
