/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package duckstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/leaderboard"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err, "failed to open in-memory store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) (battle.Model, battle.Model) {
	t.Helper()
	ctx := context.Background()
	good, err := s.CreateModel(ctx, "p", "good", []store.ResultInput{
		{Prompt: "What is 2+2?", Response: "4"},
		{Prompt: "Capital of France?", Response: "Paris"},
	})
	require.NoError(t, err)
	bad, err := s.CreateModel(ctx, "p", "bad", []store.ResultInput{
		{Prompt: "What is 2+2?", Response: "100 million"},
		{Prompt: "Unrelated", Response: "?"},
	})
	require.NoError(t, err)
	return good, bad
}

func TestCreateModel(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	good, _ := seed(t, s)

	_, err := s.CreateModel(ctx, "p", "good", nil)
	require.Error(t, err, "duplicate model name should be rejected")
	_, err = s.CreateModel(ctx, "other", "good", nil)
	require.NoError(t, err, "same name in another project")

	models, err := s.Models(ctx, "p")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "good", models[0].Name)

	results, err := s.Results(ctx, good.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "What is 2+2?", results[0].Prompt)

	r, err := s.Result(ctx, results[1].ID)
	require.NoError(t, err)
	assert.Equal(t, results[1], r)

	_, err = s.Result(ctx, 999)
	assert.Error(t, err)
}

func TestUnjudgedHeadToHeads(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	good, bad := seed(t, s)

	h2hs, err := s.UnjudgedHeadToHeads(ctx, "p", good.ID, "j1")
	require.NoError(t, err)
	require.Len(t, h2hs, 1, "only the shared prompt pairs up")
	h := h2hs[0]
	assert.Equal(t, good.ID, h.ResultA.ModelID)
	assert.Equal(t, bad.ID, h.ResultB.ModelID)
	assert.Equal(t, "What is 2+2?", h.Prompt())

	_, err = s.PutBattle(ctx, "p", h.Battle("j1", battle.A))
	require.NoError(t, err)

	// Judged from either side.
	got, err := s.UnjudgedHeadToHeads(ctx, "p", bad.ID, "j1")
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = s.UnjudgedHeadToHeads(ctx, "p", good.ID, "j2")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = s.UnjudgedHeadToHeads(ctx, "other", good.ID, "j1")
	assert.Error(t, err, "model outside the project should be rejected")
}

func TestPutBattleUpsert(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	first, err := s.PutBattle(ctx, "p", battle.Battle{Judge: "j", ResultA: 5, ResultB: 2, ModelA: 50, ModelB: 20, Winner: battle.A})
	require.NoError(t, err)
	assert.Equal(t, battle.Battle{ID: first.ID, Judge: "j", ResultA: 2, ResultB: 5, ModelA: 20, ModelB: 50, Winner: battle.B}, first)

	second, err := s.PutBattle(ctx, "p", battle.Battle{Judge: "j", ResultA: 7, ResultB: 8, ModelA: 70, ModelB: 80, Winner: battle.Tie})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	again, err := s.PutBattle(ctx, "p", battle.Battle{Judge: "j", ResultA: 2, ResultB: 5, ModelA: 20, ModelB: 50, Winner: battle.Tie})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "overwrite keeps the ID")
	assert.Equal(t, battle.Tie, again.Winner)

	all, err := s.Battles(ctx, "p")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, again, all[0])
	assert.Equal(t, second, all[1])

	other, err := s.Battles(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = s.PutBattle(ctx, "p", battle.Battle{Judge: "j", ResultA: 1, ResultB: 1, Winner: battle.A})
	assert.Error(t, err, "a result cannot battle itself")
}

func TestHeadToHeadStats(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	good, bad := seed(t, s)
	empty, err := s.CreateModel(ctx, "p", "empty", nil)
	require.NoError(t, err)

	h2hs, err := s.UnjudgedHeadToHeads(ctx, "p", bad.ID, "j1")
	require.NoError(t, err)
	require.Len(t, h2hs, 1)
	_, err = s.PutBattle(ctx, "p", h2hs[0].Battle("j1", battle.B))
	require.NoError(t, err)
	_, err = s.PutBattle(ctx, "p", h2hs[0].Battle("j2", battle.Tie))
	require.NoError(t, err)

	got, err := s.HeadToHeadStats(ctx, "p", good.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.HeadToHeadStats{
		{OtherModelID: bad.ID, OtherModel: "bad", Judge: "j1", Wins: 1},
		{OtherModelID: bad.ID, OtherModel: "bad", Judge: "j2", Ties: 1},
	}, got)

	got, err = s.HeadToHeadStats(ctx, "p", bad.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.HeadToHeadStats{
		{OtherModelID: good.ID, OtherModel: "good", Judge: "j1", Losses: 1},
		{OtherModelID: good.ID, OtherModel: "good", Judge: "j2", Ties: 1},
	}, got)

	got, err = s.HeadToHeadStats(ctx, "p", empty.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.HeadToHeadStats(ctx, "other", good.ID)
	assert.Error(t, err, "model outside the project should be rejected")

	points, err := s.Datapoints(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{good.ID: 2, bad.ID: 2, empty.ID: 0}, points)
}

func TestRatingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	lb := elo.Leaderboard{
		1: {Competitor: 1, Elo: 1010, Votes: 2, Interval: &elo.Interval{Lower: 1000, Upper: 1020}},
		2: {Competitor: 2, Elo: 1000},
	}
	require.NoError(t, s.PutRatings(ctx, "p", lb))
	got, err := s.Ratings(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, lb, got)

	// Replaced, not merged.
	require.NoError(t, s.PutRatings(ctx, "p", elo.Leaderboard{3: {Competitor: 3, Elo: 990}}))
	got, err = s.Ratings(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, elo.Leaderboard{3: {Competitor: 3, Elo: 990}}, got)
}

func TestTaskUpdates(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	updates := []task.Update{
		{TaskID: "t1", Project: "p", Type: task.TypeAutoJudge, State: task.StateRunning, Status: "started", Time: now},
		{TaskID: "t2", Project: "p", Type: task.TypeRecomputeLeaderboard, State: task.StateRunning, Time: now},
		{TaskID: "t1", Project: "p", Type: task.TypeAutoJudge, State: task.StateCompleted, Progress: 1, Status: "done", Time: now.Add(time.Second)},
	}
	for _, u := range updates {
		require.NoError(t, s.ReportTaskProgress(ctx, u))
	}

	got, err := s.TaskUpdates(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "started", got[0].Status)
	assert.Equal(t, task.StateCompleted, got[1].State)
	assert.True(t, got[1].Time.Equal(now.Add(time.Second)))

	all, err := s.ProjectTaskUpdates(ctx, "p")
	require.NoError(t, err)
	snaps := task.Replay(all)
	require.Len(t, snaps, 2)
	assert.Equal(t, "t1", snaps[0].ID)
	assert.Equal(t, []string{"started", "done"}, snaps[0].Status)
	assert.Equal(t, task.StateRunning, snaps[1].State)
}

func TestLeaderboardOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arena.duckdb")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	good, bad := seed(t, s)
	ga, _ := s.Results(ctx, good.ID)
	ba, _ := s.Results(ctx, bad.ID)

	cfg := elo.DefaultConfig()
	cfg.Rounds = 20
	svc := leaderboard.New(s, cfg)
	_, err = svc.SubmitJudgement(ctx, "p", leaderboard.Judgement{ResultA: ga[0], ResultB: ba[0], Winner: battle.A})
	require.NoError(t, err)
	want, err := s.Ratings(ctx, "p")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Ratings(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Greater(t, got[good.ID].Elo, got[bad.ID].Elo)

	recomputed, err := leaderboard.New(reopened, cfg).Recompute(ctx, "p")
	require.NoError(t, err)
	assert.InDelta(t, want[good.ID].Elo, recomputed[good.ID].Elo, 1e-9)
}
