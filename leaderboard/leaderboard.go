/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package leaderboard keeps a project's stored ratings in step with its
// battles, either by recomputing from the full history or by applying a
// single manual judgement incrementally.
package leaderboard

import (
	"context"
	"fmt"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"github.com/chainguard-dev/clog"
)

// HumanJudge names the judge recorded for manual judgements.
const HumanJudge = "human"

// Store is the persistence the leaderboard needs.
type Store interface {
	Models(ctx context.Context, project string) ([]battle.Model, error)
	Battles(ctx context.Context, project string) ([]battle.Battle, error)
	// PutBattle upserts b by (judge, unordered result pair) and returns the
	// stored battle, normalized and with its ID assigned.
	PutBattle(ctx context.Context, project string, b battle.Battle) (battle.Battle, error)
	// PutRatings replaces every stored rating of the project.
	PutRatings(ctx context.Context, project string, lb elo.Leaderboard) error
	Ratings(ctx context.Context, project string) (elo.Leaderboard, error)
}

// Service applies the rating engine to a store.
type Service struct {
	store Store
	cfg   elo.Config
}

// New returns a Service rating with cfg.
func New(store Store, cfg elo.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// Config returns the rating parameters.
func (s *Service) Config() elo.Config { return s.cfg }

// Recompute rates every model of the project from its full battle history and
// replaces the stored ratings.
func (s *Service) Recompute(ctx context.Context, project string, opts ...elo.Option) (elo.Leaderboard, error) {
	models, err := s.store.Models(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	battles, err := s.store.Battles(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}

	lb := elo.Compute(s.cfg, modelIDs(models), battles, opts...)
	if err := s.store.PutRatings(ctx, project, lb); err != nil {
		return nil, fmt.Errorf("storing ratings: %w", err)
	}

	clog.FromContext(ctx).With("project", project).
		With("models", len(models)).
		With("battles", len(battles)).
		Info("Recomputed leaderboard")
	return lb, nil
}

// Judgement is a verdict on a pair of results given outside the judging
// pipeline.
type Judgement struct {
	ResultA battle.Result
	ResultB battle.Result
	Winner  battle.Verdict
	// Judge defaults to HumanJudge.
	Judge string
}

// SubmitJudgement records j and updates the two models' ratings without
// replaying the history. When the stored ratings do not reflect the stored
// battles, or j overwrites an earlier verdict, the leaderboard is recomputed
// instead so both paths always agree.
func (s *Service) SubmitJudgement(ctx context.Context, project string, j Judgement) (battle.Battle, error) {
	if !j.Winner.Valid() {
		return battle.Battle{}, fmt.Errorf("invalid winner %q", j.Winner)
	}
	if j.Judge == "" {
		j.Judge = HumanJudge
	}
	if j.ResultA.Prompt != j.ResultB.Prompt {
		return battle.Battle{}, fmt.Errorf("results %d and %d answer different prompts", j.ResultA.ID, j.ResultB.ID)
	}

	models, err := s.store.Models(ctx, project)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("listing models: %w", err)
	}
	history, err := s.store.Battles(ctx, project)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("listing battles: %w", err)
	}
	ratings, err := s.store.Ratings(ctx, project)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("loading ratings: %w", err)
	}

	b := battle.HeadToHead{ResultA: j.ResultA, ResultB: j.ResultB}.Battle(j.Judge, j.Winner)
	if err := b.Validate(); err != nil {
		return battle.Battle{}, err
	}
	stored, err := s.store.PutBattle(ctx, project, b)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("storing battle: %w", err)
	}

	log := clog.FromContext(ctx).With("project", project).
		With("judge", stored.Judge).
		With("battle", stored.ID)

	if !incremental(models, history, ratings, stored) {
		log.Info("Ratings out of step with battles, recomputing")
		if _, err := s.Recompute(ctx, project); err != nil {
			return stored, err
		}
		return stored, nil
	}

	if stored.ModelA == stored.ModelB {
		// Self-battles never move ratings.
		return stored, nil
	}

	if ratings == nil {
		ratings = elo.Leaderboard{}
	}
	ra := s.rating(ratings, stored.ModelA)
	rb := s.rating(ratings, stored.ModelB)
	ra.Elo, rb.Elo = s.cfg.Update(ra.Elo, rb.Elo, stored.Winner)
	for _, r := range []*elo.Rating{&ra, &rb} {
		r.Votes++
		r.Interval = widen(r.Interval, r.Elo)
		ratings[r.Competitor] = *r
	}

	if err := s.store.PutRatings(ctx, project, ratings); err != nil {
		return stored, fmt.Errorf("storing ratings: %w", err)
	}
	log.With("model_a", ra.Competitor).With("elo_a", ra.Elo).
		With("model_b", rb.Competitor).With("elo_b", rb.Elo).
		Info("Applied judgement")
	return stored, nil
}

func (s *Service) rating(lb elo.Leaderboard, id int64) elo.Rating {
	if r, ok := lb[id]; ok {
		return r
	}
	return elo.Rating{Competitor: id, Elo: s.cfg.Initial}
}

// incremental reports whether applying stored on top of ratings gives the
// same result as a recompute: the battle is new, both sides are rated
// competitors and their vote counts match the history.
func incremental(models []battle.Model, history []battle.Battle, ratings elo.Leaderboard, stored battle.Battle) bool {
	known := make(map[int64]bool, len(models))
	for _, m := range models {
		known[m.ID] = true
	}
	if !known[stored.ModelA] || !known[stored.ModelB] {
		return false
	}

	votes := map[int64]int{}
	var last battle.Battle
	for _, b := range history {
		if b.Key() == stored.Key() {
			return false
		}
		if b.ID > last.ID {
			last = b
		}
		if b.ModelA == b.ModelB || !b.Winner.Valid() || !known[b.ModelA] || !known[b.ModelB] {
			continue
		}
		votes[b.ModelA]++
		votes[b.ModelB]++
	}
	if len(history) > 0 && stored.ID <= last.ID {
		return false
	}

	for id := range known {
		if ratings[id].Votes != votes[id] {
			return false
		}
	}
	return true
}

// widen stretches iv to contain point.
func widen(iv *elo.Interval, point float64) *elo.Interval {
	if iv == nil {
		return &elo.Interval{Lower: point, Upper: point}
	}
	return &elo.Interval{Lower: min(iv.Lower, point), Upper: max(iv.Upper, point)}
}

func modelIDs(models []battle.Model) []int64 {
	ids := make([]int64, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	return ids
}
