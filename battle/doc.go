/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package battle defines the data model shared by the judging and ranking
// engine: models and their results, head-to-head pairs eligible for judgement,
// and the battles recorded when a judge adjudicates a pair.
//
// # Ordering
//
// A HeadToHead is unordered when it is created: either result may appear as
// "A". Battles are stored in a canonical order where the result with the
// lower ID is always "A". Normalize performs that reordering and flips the
// winner so that the recorded outcome is unchanged.
//
// # Identity
//
// At most one Battle exists per (judge, unordered result pair). Key returns
// that identity, and stores use it to upsert so that re-judging a pair
// overwrites the previous verdict instead of duplicating it.
package battle
