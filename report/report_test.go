/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report_test

import (
	"context"
	"strings"
	"testing"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/judge"
	"chainguard.dev/arena/judge/judgetest"
	"chainguard.dev/arena/report"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/task"
)

func TestLeaderboard(t *testing.T) {
	models := []battle.Model{
		{ID: 1, Project: "math", Name: "bad-answers"},
		{ID: 2, Project: "math", Name: "good-answers"},
		{ID: 3, Project: "math", Name: "late-entry"},
	}
	lb := elo.Leaderboard{
		1: {Competitor: 1, Elo: 984, Votes: 0, Interval: &elo.Interval{Lower: 980, Upper: 990}},
		2: {Competitor: 2, Elo: 1016, Votes: 1, Interval: &elo.Interval{Lower: 1010, Upper: 1020}},
	}

	got := report.Leaderboard(models, lb)
	t.Logf("Generated report:\n%s", got)

	for _, want := range []string{"Rank", "95% CI", "1016.0", "+4.0 / -6.0", "late-entry"} {
		if !strings.Contains(got, want) {
			t.Errorf("report should contain %q", want)
		}
	}
	good := strings.Index(got, "good-answers")
	bad := strings.Index(got, "bad-answers")
	late := strings.Index(got, "late-entry")
	if good > bad || bad > late {
		t.Errorf("rows out of order: good@%d bad@%d late@%d", good, bad, late)
	}
}

func TestLeaderboardOptions(t *testing.T) {
	models := []battle.Model{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	lb := elo.Leaderboard{1: {Competitor: 1, Elo: 1000, Votes: 1}}

	tests := []struct {
		name    string
		opts    []report.Option
		want    []string
		notWant []string
	}{{
		name:    "defaults",
		want:    []string{"95% CI"},
		notWant: []string{"Datapoints"},
	}, {
		name:    "confidence",
		opts:    []report.Option{report.WithConfidence(0.9)},
		want:    []string{"90% CI"},
		notWant: []string{"95% CI"},
	}, {
		name: "fractional confidence",
		opts: []report.Option{report.WithConfidence(0.995)},
		want: []string{"99.5% CI"},
	}, {
		name: "datapoints",
		opts: []report.Option{report.WithDatapoints(map[int64]int{1: 12, 2: 7})},
		want: []string{"Datapoints", " 12 |", " 7 |"},
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.Leaderboard(models, lb, tt.opts...)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("report should contain %q:\n%s", want, got)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("report should not contain %q:\n%s", notWant, got)
				}
			}
		})
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	got := report.Leaderboard(nil, nil)
	if !strings.Contains(got, "Model") {
		t.Errorf("empty report should still have a header:\n%s", got)
	}
	if strings.Contains(got, "1016") {
		t.Errorf("empty report has rows:\n%s", got)
	}
}

func TestTasks(t *testing.T) {
	got := report.Tasks([]task.Snapshot{{
		ID:       "abc",
		Type:     task.TypeAutoJudge,
		State:    task.StateCompleted,
		Progress: 1,
		Status:   []string{"Judging 1 head-to-head(s)", "Stored 1 battle(s)"},
	}, {
		ID:    "def",
		Type:  task.TypeRecomputeLeaderboard,
		State: task.StatePending,
	}})
	t.Logf("Generated report:\n%s", got)

	for _, want := range []string{"abc", "auto-judge", "100%", "Stored 1 battle(s)", "pending"} {
		if !strings.Contains(got, want) {
			t.Errorf("report should contain %q", want)
		}
	}
	if strings.Contains(got, "Judging 1") {
		t.Error("only the latest status line should be shown")
	}
}

func TestUsage(t *testing.T) {
	j := judgetest.Fixed("always-a", battle.A)
	h := battle.HeadToHead{
		ResultA: battle.Result{ID: 1, Prompt: "What is 2+2?", Response: "4"},
		ResultB: battle.Result{ID: 2, Prompt: "What is 2+2?", Response: "5"},
	}
	for range 3 {
		if _, err := j.Judge(context.Background(), h); err != nil {
			t.Fatalf("Judge() = %v", err)
		}
	}

	got := report.Usage([]judge.Interface{j})
	t.Logf("Generated report:\n%s", got)
	if !strings.Contains(got, "always-a") || !strings.Contains(got, " 3 |") {
		t.Errorf("usage report should show 3 calls for always-a:\n%s", got)
	}
}

func TestHeadToHeadStats(t *testing.T) {
	got := report.HeadToHeadStats([]store.HeadToHeadStats{
		{OtherModelID: 2, OtherModel: "bad-answers", Judge: "claude", Wins: 3, Losses: 1},
		{OtherModelID: 2, OtherModel: "bad-answers", Judge: "gpt", Wins: 1, Ties: 1},
	})
	t.Logf("Generated report:\n%s", got)

	for _, want := range []string{"Opponent", "Win rate", "bad-answers", "claude", " 75% |", "gpt"} {
		if !strings.Contains(got, want) {
			t.Errorf("report should contain %q", want)
		}
	}
	if strings.Index(got, "claude") > strings.Index(got, "gpt") {
		t.Error("rows should keep the given order")
	}
}
