/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

func newGemini(ctx context.Context, cfg Config) (completer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}

	return func(ctx context.Context, system, user string) (completion, error) {
		resp, err := client.Models.GenerateContent(ctx, cfg.Model, genai.Text(user), &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: system}},
			},
			Temperature:     genai.Ptr[float32](0),
			MaxOutputTokens: int32(cfg.MaxTokens),
		})
		if err != nil {
			return completion{}, classifyGemini(ctx, err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return completion{}, Transient(errors.New("no candidates in Gemini response"))
		}

		c := completion{Text: resp.Text()}
		if resp.UsageMetadata != nil {
			c.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
			c.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
		}
		return c, nil
	}, nil
}

// classifyGemini matches the error text the Gemini API uses for quota,
// overload and server failures; the SDK does not expose a stable status type.
func classifyGemini(ctx context.Context, err error) error {
	msg := err.Error()
	for _, marker := range []string{
		"RESOURCE_EXHAUSTED",
		"Resource exhausted",
		"429",
		"rate limit",
		"quota exceeded",
		"UNAVAILABLE",
		"Overloaded",
		"503",
		"500",
		"Internal error",
		"DEADLINE_EXCEEDED",
	} {
		if strings.Contains(msg, marker) {
			return Transient(err)
		}
	}
	return classify(ctx, err)
}
