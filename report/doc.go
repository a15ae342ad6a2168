/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders leaderboards, head-to-head records, task lists and
// judge usage as markdown tables.
//
// Example:
//
//	models, _ := store.Models(ctx, "math")
//	ratings, _ := store.Ratings(ctx, "math")
//	fmt.Print(report.Leaderboard(models, ratings, report.WithConfidence(0.9)))
package report
