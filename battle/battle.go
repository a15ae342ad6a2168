/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package battle

import (
	"fmt"
)

// Verdict is the outcome label a judge assigns to a head-to-head.
type Verdict string

const (
	// A means the first response won.
	A Verdict = "A"
	// B means the second response won.
	B Verdict = "B"
	// Tie means neither response was better.
	Tie Verdict = "-"
)

// Valid reports whether v is one of the canonical verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case A, B, Tie:
		return true
	default:
		return false
	}
}

// Flip returns the verdict seen from the other side of the pair.
func (v Verdict) Flip() Verdict {
	switch v {
	case A:
		return B
	case B:
		return A
	default:
		return v
	}
}

// Score returns the outcome from A's perspective: 1 for a win,
// 0 for a loss and 0.5 for a tie.
func (v Verdict) Score() float64 {
	switch v {
	case A:
		return 1
	case B:
		return 0
	default:
		return 0.5
	}
}

// Model is a competitor on the leaderboard.
type Model struct {
	ID      int64  `json:"id"`
	Project string `json:"project"`
	Name    string `json:"name"`
}

// Result is one model's response to one prompt. Results are immutable.
type Result struct {
	ID       int64  `json:"id"`
	ModelID  int64  `json:"model_id"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// HeadToHead is a pair of results for the same prompt that can be judged.
type HeadToHead struct {
	ResultA Result `json:"result_a"`
	ResultB Result `json:"result_b"`
}

// Prompt returns the prompt both results respond to.
func (h HeadToHead) Prompt() string {
	return h.ResultA.Prompt
}

// Key returns the unordered identity of the pair for the given judge.
func (h HeadToHead) Key(judge string) Key {
	return NewKey(judge, h.ResultA.ID, h.ResultB.ID)
}

// Battle returns the battle recorded when judge assigns winner to h.
// The returned battle is normalized.
func (h HeadToHead) Battle(judge string, winner Verdict) Battle {
	return Battle{
		Judge:   judge,
		ResultA: h.ResultA.ID,
		ResultB: h.ResultB.ID,
		ModelA:  h.ResultA.ModelID,
		ModelB:  h.ResultB.ModelID,
		Winner:  winner,
	}.Normalize()
}

// Battle is the outcome of one judge adjudicating one head-to-head.
type Battle struct {
	// ID is assigned by the store on first insert and kept when the battle
	// is overwritten. It defines the canonical replay order.
	ID      int64   `json:"id"`
	Judge   string  `json:"judge"`
	ResultA int64   `json:"result_a_id"`
	ResultB int64   `json:"result_b_id"`
	ModelA  int64   `json:"model_a_id"`
	ModelB  int64   `json:"model_b_id"`
	Winner  Verdict `json:"winner"`
}

// Normalize orders the pair so the lower result ID is A, flipping the
// winner when the sides are swapped.
func (b Battle) Normalize() Battle {
	if b.ResultA <= b.ResultB {
		return b
	}
	b.ResultA, b.ResultB = b.ResultB, b.ResultA
	b.ModelA, b.ModelB = b.ModelB, b.ModelA
	b.Winner = b.Winner.Flip()
	return b
}

// Key returns the (judge, unordered pair) identity of the battle.
func (b Battle) Key() Key {
	return NewKey(b.Judge, b.ResultA, b.ResultB)
}

// Validate checks that the battle can be stored.
func (b Battle) Validate() error {
	if b.Judge == "" {
		return fmt.Errorf("battle %d: judge is required", b.ID)
	}
	if b.ResultA == b.ResultB {
		return fmt.Errorf("battle %d: result %d cannot battle itself", b.ID, b.ResultA)
	}
	if !b.Winner.Valid() {
		return fmt.Errorf("battle %d: invalid winner %q", b.ID, b.Winner)
	}
	return nil
}

// Key identifies a battle independent of which result was shown first.
type Key struct {
	Judge string
	Lo    int64
	Hi    int64
}

// NewKey builds a Key for judge over the two results, in either order.
func NewKey(judge string, a, b int64) Key {
	if a > b {
		a, b = b, a
	}
	return Key{Judge: judge, Lo: a, Hi: b}
}

// String implements fmt.Stringer
func (k Key) String() string {
	return fmt.Sprintf("%s:%d-%d", k.Judge, k.Lo, k.Hi)
}
