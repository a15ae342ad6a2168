/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package elo

import (
	"math"
	"math/rand/v2"
	"testing"

	"chainguard.dev/arena/battle"
	"github.com/google/go-cmp/cmp"
)

func fight(id int64, a, b int64, winner battle.Verdict) battle.Battle {
	return battle.Battle{
		ID:      id,
		Judge:   "j",
		ResultA: id * 10,
		ResultB: id*10 + 1,
		ModelA:  a,
		ModelB:  b,
		Winner:  winner,
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	want := Config{K: 4, Scale: 400, Base: 10, Initial: 1000, Rounds: 1000, Seed: 0, Confidence: 0.95}
	if diff := cmp.Diff(want, DefaultConfig()); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero k", mutate: func(c *Config) { c.K = 0 }},
		{name: "negative scale", mutate: func(c *Config) { c.Scale = -1 }},
		{name: "base of one", mutate: func(c *Config) { c.Base = 1 }},
		{name: "negative rounds", mutate: func(c *Config) { c.Rounds = -1 }},
		{name: "full confidence", mutate: func(c *Config) { c.Confidence = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	ra, rb := cfg.Update(1000, 1000, battle.A)
	if ra != 1002 || rb != 998 {
		t.Errorf("Update(1000, 1000, A) = (%v, %v), want (1002, 998)", ra, rb)
	}

	ra, rb = cfg.Update(1000, 1000, battle.Tie)
	if ra != 1000 || rb != 1000 {
		t.Errorf("Update(1000, 1000, Tie) = (%v, %v), want unchanged", ra, rb)
	}

	ra, rb = cfg.Update(1100, 900, battle.B)
	if math.Abs(ra+rb-2000) > 1e-9 {
		t.Errorf("Update should conserve total rating, got %v", ra+rb)
	}
	if ra >= 1100 || rb <= 900 {
		t.Errorf("upset should move ratings toward each other, got (%v, %v)", ra, rb)
	}
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	lb := Compute(DefaultConfig(), nil, []battle.Battle{fight(1, 1, 2, battle.A)})
	if lb == nil || len(lb) != 0 {
		t.Errorf("Compute() with no competitors = %v, want empty map", lb)
	}
}

func TestComputeZeroBattleCompetitor(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rounds = 50
	lb := Compute(cfg, []int64{1, 2, 3}, []battle.Battle{fight(1, 1, 2, battle.A)})

	want := Rating{Competitor: 3, Elo: 1000}
	if diff := cmp.Diff(want, lb[3]); diff != "" {
		t.Errorf("idle competitor mismatch (-want +got):\n%s", diff)
	}
	if lb[1].Interval == nil || lb[2].Interval == nil {
		t.Error("competitors with battles should have an interval")
	}
}

func TestComputeSkipsInvalidBattles(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rounds = 10
	lb := Compute(cfg, []int64{1, 2}, []battle.Battle{
		fight(1, 1, 1, battle.A),  // self-battle
		fight(2, 1, 2, "maybe"),   // invalid verdict
		fight(3, 1, 99, battle.A), // unknown competitor
	})

	for id, r := range lb {
		if r.Votes != 0 || r.Elo != cfg.Initial || r.Interval != nil {
			t.Errorf("competitor %d = %+v, want untouched", id, r)
		}
	}
}

func TestComputeOrderInvariant(t *testing.T) {
	t.Parallel()

	var battles []battle.Battle
	verdicts := []battle.Verdict{battle.A, battle.B, battle.Tie}
	for i := range 60 {
		a := int64(i%4 + 1)
		b := int64((i+1)%4 + 1)
		battles = append(battles, fight(int64(i+1), a, b, verdicts[i%3]))
	}

	cfg := DefaultConfig()
	cfg.Rounds = 100
	competitors := []int64{1, 2, 3, 4}
	want := Compute(cfg, competitors, battles)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := append([]battle.Battle(nil), battles...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if diff := cmp.Diff(want, Compute(cfg, competitors, shuffled)); diff != "" {
			t.Fatalf("Compute() depends on input order (-want +got):\n%s", diff)
		}
	}
}

func TestComputeFollowsBattleIDs(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rounds = 10
	competitors := []int64{1, 2}

	// The same two verdicts, stored in either order.
	first := Compute(cfg, competitors, []battle.Battle{fight(1, 1, 2, battle.A), fight(2, 1, 2, battle.B)})
	second := Compute(cfg, competitors, []battle.Battle{fight(1, 1, 2, battle.B), fight(2, 1, 2, battle.A)})

	if first[1].Elo >= cfg.Initial {
		t.Errorf("losing the later battle should leave model 1 below %v, got %v", cfg.Initial, first[1].Elo)
	}
	if second[1].Elo <= cfg.Initial {
		t.Errorf("winning the later battle should leave model 1 above %v, got %v", cfg.Initial, second[1].Elo)
	}
}

func TestComputeIntervalContainsPoint(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 7))
	verdicts := []battle.Verdict{battle.A, battle.B, battle.Tie}
	var battles []battle.Battle
	for i := range 200 {
		a := int64(rng.IntN(6) + 1)
		b := int64(rng.IntN(6) + 1)
		battles = append(battles, fight(int64(i+1), a, b, verdicts[rng.IntN(3)]))
	}

	cfg := DefaultConfig()
	cfg.Rounds = 200
	for id, r := range Compute(cfg, []int64{1, 2, 3, 4, 5, 6, 7}, battles) {
		if r.Votes == 0 {
			continue
		}
		if r.Interval == nil {
			t.Fatalf("competitor %d has votes but no interval", id)
		}
		if r.Interval.Lower > r.Elo || r.Elo > r.Interval.Upper {
			t.Errorf("competitor %d: %v not within [%v, %v]", id, r.Elo, r.Interval.Lower, r.Interval.Upper)
		}
	}
}

func TestComputeWinnerOutranksLoser(t *testing.T) {
	t.Parallel()

	// 1 beats everyone, 3 loses to everyone.
	battles := []battle.Battle{
		fight(1, 1, 2, battle.A),
		fight(2, 3, 1, battle.B),
		fight(3, 2, 3, battle.A),
		fight(4, 1, 3, battle.A),
		fight(5, 2, 1, battle.B),
		fight(6, 3, 2, battle.B),
	}

	cfg := DefaultConfig()
	cfg.Rounds = 20
	lb := Compute(cfg, []int64{1, 2, 3}, battles)
	if lb[1].Elo <= lb[3].Elo {
		t.Errorf("winner %v should outrank loser %v", lb[1].Elo, lb[3].Elo)
	}

	ranked := lb.Ranked()
	if ranked[0].Competitor != 1 || ranked[2].Competitor != 3 {
		t.Errorf("Ranked() = %+v, want 1 first and 3 last", ranked)
	}
}

func TestComputeMatchesIncremental(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	battles := []battle.Battle{
		fight(1, 1, 2, battle.A),
		fight(2, 2, 3, battle.Tie),
		fight(3, 3, 1, battle.A),
		fight(4, 1, 2, battle.B),
	}

	ratings := map[int64]float64{1: cfg.Initial, 2: cfg.Initial, 3: cfg.Initial}
	for _, b := range battles {
		ratings[b.ModelA], ratings[b.ModelB] = cfg.Update(ratings[b.ModelA], ratings[b.ModelB], b.Winner)
	}

	lb := Compute(cfg, []int64{1, 2, 3}, battles)
	for id, want := range ratings {
		if lb[id].Elo != want {
			t.Errorf("competitor %d: Compute() = %v, incremental = %v", id, lb[id].Elo, want)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	battles := []battle.Battle{
		fight(1, 1, 2, battle.A),
		fight(2, 1, 2, battle.A),
		fight(3, 1, 2, battle.B),
	}
	cfg := DefaultConfig()
	first := Compute(cfg, []int64{1, 2}, battles)
	second := Compute(cfg, []int64{2, 1}, battles)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Compute() not reproducible (-first +second):\n%s", diff)
	}
}

func TestComputeProgress(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rounds = 25

	var calls, last int
	Compute(cfg, []int64{1, 2}, []battle.Battle{fight(1, 1, 2, battle.A)}, WithProgress(func(done, total int) {
		calls++
		if done < last || total != 25 {
			t.Errorf("progress(%d, %d) after %d", done, total, last)
		}
		last = done
	}))
	if calls != 25 || last != 25 {
		t.Errorf("progress called %d times ending at %d, want 25 and 25", calls, last)
	}
}

func TestComputeNoRounds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Rounds = 0
	lb := Compute(cfg, []int64{1, 2}, []battle.Battle{fight(1, 1, 2, battle.A)})

	r := lb[1]
	if r.Interval == nil || r.Interval.Lower != r.Elo || r.Interval.Upper != r.Elo {
		t.Errorf("rating %+v, want a degenerate interval at the point", r)
	}
}
