/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package elo turns pairwise battle outcomes into ratings with bootstrap
// confidence intervals.
//
// Point estimates replay battles in a canonical order (battle ID, then judge,
// then result IDs) from the initial rating. The ratings are a function of the
// stored battle set including its IDs, and IDs follow insertion order, so two
// runs that store the same verdicts in a different order can rate
// differently. The order battles are passed in does not matter. Intervals
// resample the battle set with replacement using a PCG generator seeded from
// Config.Seed; the default seed is fixed, so intervals are reproducible too.
package elo

import (
	"cmp"
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"chainguard.dev/arena/battle"
)

// Config holds the rating parameters.
type Config struct {
	// K is the maximum rating change per battle.
	K float64 `yaml:"k"`
	// Scale and Base shape the expected-score curve: a rating gap of Scale
	// makes the stronger side Base times more likely to win.
	Scale float64 `yaml:"scale"`
	Base  float64 `yaml:"base"`
	// Initial is the rating of a competitor before any battle.
	Initial float64 `yaml:"initial"`
	// Rounds is the number of bootstrap resamples.
	Rounds int `yaml:"rounds"`
	// Seed seeds the bootstrap generator.
	Seed uint64 `yaml:"seed"`
	// Confidence is the coverage of the interval, 0.95 for the 2.5th to
	// 97.5th percentile.
	Confidence float64 `yaml:"confidence"`
}

// DefaultConfig returns the standard arena parameters.
func DefaultConfig() Config {
	return Config{
		K:          4,
		Scale:      400,
		Base:       10,
		Initial:    1000,
		Rounds:     1000,
		Seed:       0,
		Confidence: 0.95,
	}
}

// Validate checks that the parameters produce meaningful ratings.
func (c Config) Validate() error {
	var errs []error
	if c.K <= 0 {
		errs = append(errs, errors.New("k must be positive"))
	}
	if c.Scale <= 0 {
		errs = append(errs, errors.New("scale must be positive"))
	}
	if c.Base <= 1 {
		errs = append(errs, errors.New("base must be greater than 1"))
	}
	if c.Rounds < 0 {
		errs = append(errs, errors.New("rounds cannot be negative"))
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		errs = append(errs, errors.New("confidence must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

// Expected returns the probability that a competitor rated ra beats one
// rated rb.
func (c Config) Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(c.Base, (rb-ra)/c.Scale))
}

// Update applies one battle to the ratings of its two sides. Every rating
// path (replay, bootstrap and incremental submission) goes through Update.
func (c Config) Update(ra, rb float64, winner battle.Verdict) (float64, float64) {
	delta := c.K * (winner.Score() - c.Expected(ra, rb))
	return ra + delta, rb - delta
}

// Interval is a confidence range around a rating.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Rating is the standing of one competitor.
type Rating struct {
	Competitor int64   `json:"competitor"`
	Elo        float64 `json:"elo"`
	// Interval is nil for competitors without battles.
	Interval *Interval `json:"interval,omitempty"`
	Votes    int       `json:"votes"`
}

// Leaderboard maps competitor IDs to their ratings.
type Leaderboard map[int64]Rating

// Ranked returns the ratings ordered by Elo, highest first, breaking ties by
// competitor ID.
func (lb Leaderboard) Ranked() []Rating {
	out := make([]Rating, 0, len(lb))
	for _, r := range lb {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Rating) int {
		if c := cmp.Compare(b.Elo, a.Elo); c != 0 {
			return c
		}
		return cmp.Compare(a.Competitor, b.Competitor)
	})
	return out
}

// Option configures Compute.
type Option func(*options)

type options struct {
	progress func(done, total int)
}

// WithProgress calls fn after every bootstrap round.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

// CanonicalOrder sorts battles into replay order in place.
func CanonicalOrder(battles []battle.Battle) {
	slices.SortFunc(battles, func(a, b battle.Battle) int {
		return cmp.Or(
			cmp.Compare(a.ID, b.ID),
			cmp.Compare(a.Judge, b.Judge),
			cmp.Compare(a.ResultA, b.ResultA),
			cmp.Compare(a.ResultB, b.ResultB),
		)
	})
}

// match is a battle reduced to dense competitor indices.
type match struct {
	a, b   int
	winner battle.Verdict
}

// Compute rates competitors from the full battle history. Battles between a
// model and itself, battles with an invalid verdict and battles involving an
// unknown competitor are ignored. An empty competitor set yields an empty
// leaderboard.
func Compute(cfg Config, competitors []int64, battles []battle.Battle, opts ...Option) Leaderboard {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	lb := make(Leaderboard, len(competitors))
	if len(competitors) == 0 {
		return lb
	}

	index := make(map[int64]int, len(competitors))
	ids := make([]int64, 0, len(competitors))
	for _, id := range competitors {
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(ids)
		ids = append(ids, id)
	}

	sorted := slices.Clone(battles)
	CanonicalOrder(sorted)

	matches := make([]match, 0, len(sorted))
	votes := make([]int, len(ids))
	for _, b := range sorted {
		ia, okA := index[b.ModelA]
		ib, okB := index[b.ModelB]
		if !okA || !okB || ia == ib || !b.Winner.Valid() {
			continue
		}
		matches = append(matches, match{a: ia, b: ib, winner: b.Winner})
		votes[ia]++
		votes[ib]++
	}

	point := replay(cfg, len(ids), matches)
	intervals := bootstrap(cfg, len(ids), matches, point, o.progress)

	for i, id := range ids {
		r := Rating{Competitor: id, Elo: cfg.Initial, Votes: votes[i]}
		if votes[i] > 0 {
			r.Elo = point[i]
			r.Interval = intervals[i]
		}
		lb[id] = r
	}
	return lb
}

func replay(cfg Config, n int, matches []match) []float64 {
	ratings := make([]float64, n)
	for i := range ratings {
		ratings[i] = cfg.Initial
	}
	for _, m := range matches {
		ratings[m.a], ratings[m.b] = cfg.Update(ratings[m.a], ratings[m.b], m.winner)
	}
	return ratings
}

// bootstrap returns an interval per competitor that always contains its point
// estimate.
func bootstrap(cfg Config, n int, matches []match, point []float64, progress func(done, total int)) []*Interval {
	intervals := make([]*Interval, n)
	if len(matches) == 0 {
		return intervals
	}

	if cfg.Rounds <= 0 {
		for i := range intervals {
			intervals[i] = &Interval{Lower: point[i], Upper: point[i]}
		}
		return intervals
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = make([]float64, 0, cfg.Rounds)
	}

	resample := make([]match, len(matches))
	for round := range cfg.Rounds {
		for i := range resample {
			resample[i] = matches[rng.IntN(len(matches))]
		}
		for i, r := range replay(cfg, n, resample) {
			samples[i] = append(samples[i], r)
		}
		if progress != nil {
			progress(round+1, cfg.Rounds)
		}
	}

	alpha := (1 - cfg.Confidence) / 2
	lo := percentileIndex(alpha, cfg.Rounds)
	hi := percentileIndex(1-alpha, cfg.Rounds)
	for i, s := range samples {
		slices.Sort(s)
		intervals[i] = &Interval{
			Lower: min(s[lo], point[i]),
			Upper: max(s[hi], point[i]),
		}
	}
	return intervals
}

func percentileIndex(q float64, n int) int {
	return min(max(int(math.Floor(q*float64(n))), 0), n-1)
}
