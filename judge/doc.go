/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge adjudicates head-to-head comparisons between two model
// responses to the same prompt.
//
// # Overview
//
// The package provides:
//   - A common Interface implemented by every judge backend
//   - Backends for Anthropic, OpenAI, OpenAI-compatible services (Ollama,
//     Together) and Google Gemini
//   - Composable wrappers that retry transient failures and normalize
//     free-text output into a canonical battle.Verdict
//   - Atomic usage counters (calls, input and output tokens)
//
// # Usage
//
//	j, err := judge.New(ctx, judge.Config{
//		Type:  judge.TypeAnthropic,
//		Name:  "claude",
//		Model: "claude-sonnet-4-5",
//		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	}, judge.WithWrappers(judge.DefaultWrappers()...))
//	if err != nil {
//		return err
//	}
//	verdict, err := j.Judge(ctx, h2h)
//
// # Wrappers
//
// Wrappers are applied in order, the first one innermost. DefaultWrappers
// places Cleaning inside Retrying, so a response that cannot be parsed is
// treated like a transient failure and the backend is called again instead
// of reinterpreting the stale output.
//
// Failures that survive the wrapper chain are tagged with ErrJudging.
// Unparseable output is reported as ErrUnparseable; wrappers never guess a
// verdict.
//
// # Thread Safety
//
// Backends and wrappers are safe for concurrent use. Usage counters are
// updated atomically and can be read at any time.
package judge
