/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// newOpenAI serves OpenAI itself and the OpenAI-compatible Ollama and
// Together endpoints, which differ only by base URL and credentials.
func newOpenAI(cfg Config) completer {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the SDK insists on one.
		apiKey = "ollama"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return func(ctx context.Context, system, user string) (completion, error) {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(cfg.Model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Temperature: openai.Float(0),
			MaxTokens:   openai.Int(cfg.MaxTokens),
		})
		if err != nil {
			return completion{}, classifyOpenAI(ctx, err)
		}
		if len(resp.Choices) == 0 {
			return completion{}, Transient(errors.New("no choices in completion response"))
		}
		return completion{
			Text:         resp.Choices[0].Message.Content,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}, nil
	}
}

// classifyOpenAI marks rate limit and server errors as transient.
func classifyOpenAI(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if transientStatus(apiErr.StatusCode) {
			return Transient(err)
		}
		return err
	}
	return classify(ctx, err)
}
