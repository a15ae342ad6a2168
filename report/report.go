/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"fmt"
	"strings"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/judge"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/task"
)

// Option configures Leaderboard.
type Option func(*options)

type options struct {
	confidence float64
	datapoints map[int64]int
}

// WithConfidence labels the interval column with its coverage. Defaults to
// 0.95.
func WithConfidence(c float64) Option {
	return func(o *options) { o.confidence = c }
}

// WithDatapoints adds a column with the number of results of each model.
func WithDatapoints(n map[int64]int) Option {
	return func(o *options) { o.datapoints = n }
}

// Leaderboard renders ratings ranked by Elo. Models without a stored rating
// are listed last as unrated.
func Leaderboard(models []battle.Model, lb elo.Leaderboard, opts ...Option) string {
	o := options{confidence: 0.95}
	for _, opt := range opts {
		opt(&o)
	}

	names := make(map[int64]string, len(models))
	for _, m := range models {
		names[m.ID] = m.Name
	}

	cols := []column{
		number("Rank"),
		text("Model"),
		number("Elo"),
		number(fmt.Sprintf("%.4g%% CI", o.confidence*100)),
		number("Votes"),
	}
	if o.datapoints != nil {
		cols = append(cols, number("Datapoints"))
	}
	row := func(id int64, cells ...string) []string {
		if o.datapoints == nil {
			return cells
		}
		return append(cells, fmt.Sprint(o.datapoints[id]))
	}

	var buf bytes.Buffer
	table := newTable(&buf, cols...)

	rank := 0
	for _, r := range lb.Ranked() {
		name, ok := names[r.Competitor]
		if !ok {
			name = fmt.Sprintf("#%d", r.Competitor)
		}
		delete(names, r.Competitor)
		rank++
		_ = table.Append(row(r.Competitor,
			fmt.Sprint(rank),
			name,
			fmt.Sprintf("%.1f", r.Elo),
			interval(r),
			fmt.Sprint(r.Votes),
		))
	}
	for _, m := range models {
		if _, unrated := names[m.ID]; unrated {
			_ = table.Append(row(m.ID, "-", m.Name, "-", "-", "0"))
		}
	}
	_ = table.Render()
	return buf.String()
}

func interval(r elo.Rating) string {
	if r.Interval == nil {
		return "-"
	}
	return fmt.Sprintf("+%.1f / -%.1f", r.Interval.Upper-r.Elo, r.Elo-r.Interval.Lower)
}

// Tasks renders task snapshots with their latest status line.
func Tasks(snaps []task.Snapshot) string {
	var buf bytes.Buffer
	table := newTable(&buf, text("Task"), text("Type"), text("State"), number("Progress"), text("Status"))
	for _, s := range snaps {
		status := "-"
		if n := len(s.Status); n > 0 {
			status = strings.ReplaceAll(s.Status[n-1], "\n", " ")
		}
		_ = table.Append([]string{
			s.ID,
			string(s.Type),
			string(s.State),
			fmt.Sprintf("%.0f%%", s.Progress*100),
			status,
		})
	}
	_ = table.Render()
	return buf.String()
}

// Usage renders the lifetime usage counters of each judge.
func Usage(judges []judge.Interface) string {
	var buf bytes.Buffer
	table := newTable(&buf, text("Judge"), number("Calls"), number("Input tokens"), number("Output tokens"))
	for _, j := range judges {
		u := j.Usage()
		_ = table.Append([]string{
			j.Name(),
			fmt.Sprint(u.Calls),
			fmt.Sprint(u.InputTokens),
			fmt.Sprint(u.OutputTokens),
		})
	}
	_ = table.Render()
	return buf.String()
}

// HeadToHeadStats renders one model's record against each opponent and judge.
// Win rate counts a tie as half a win.
func HeadToHeadStats(stats []store.HeadToHeadStats) string {
	var buf bytes.Buffer
	table := newTable(&buf,
		text("Opponent"), text("Judge"),
		number("Wins"), number("Losses"), number("Ties"), number("Win rate"))
	for _, st := range stats {
		rate := "-"
		if n := st.Wins + st.Losses + st.Ties; n > 0 {
			rate = fmt.Sprintf("%.0f%%", 100*(float64(st.Wins)+float64(st.Ties)/2)/float64(n))
		}
		_ = table.Append([]string{
			st.OtherModel,
			st.Judge,
			fmt.Sprint(st.Wins),
			fmt.Sprint(st.Losses),
			fmt.Sprint(st.Ties),
			rate,
		})
	}
	_ = table.Render()
	return buf.String()
}
