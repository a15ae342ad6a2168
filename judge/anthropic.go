/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newAnthropic(cfg Config) completer {
	// Retries belong to the Retrying wrapper, not the SDK.
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)

	return func(ctx context.Context, system, user string) (completion, error) {
		msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(cfg.Model),
			MaxTokens:   cfg.MaxTokens,
			Temperature: anthropic.Float(0),
			System:      []anthropic.TextBlockParam{{Text: system}},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})
		if err != nil {
			return completion{}, classifyAnthropic(ctx, err)
		}

		var text strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		return completion{
			Text:         text.String(),
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		}, nil
	}
}

// classifyAnthropic marks rate limit, overloaded and server errors as transient.
func classifyAnthropic(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if transientStatus(apiErr.StatusCode) {
			return Transient(err)
		}
		return err
	}
	return classify(ctx, err)
}
