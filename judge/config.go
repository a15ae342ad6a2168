/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"fmt"
	"strings"
)

// Type selects the service backing a judge.
type Type string

const (
	TypeAnthropic Type = "anthropic"
	TypeOpenAI    Type = "openai"
	TypeOllama    Type = "ollama"
	TypeTogether  Type = "together"
	TypeGemini    Type = "gemini"
)

// Types lists every supported backend.
var Types = []Type{TypeAnthropic, TypeOpenAI, TypeOllama, TypeTogether, TypeGemini}

const (
	defaultOllamaURL   = "http://localhost:11434/v1"
	defaultTogetherURL = "https://api.together.xyz/v1"
	defaultMaxTokens   = 16
)

// Config describes a judge. It is immutable once the judge is created.
type Config struct {
	Type Type `yaml:"type"`
	// Name identifies the judge on battles. Defaults to Model.
	Name string `yaml:"name"`
	// Model is the service-side model identifier.
	Model string `yaml:"model"`
	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string `yaml:"system_prompt"`
	// BaseURL overrides the service endpoint (OpenAI-compatible backends).
	BaseURL string `yaml:"base_url"`
	// MaxTokens bounds the length of the verdict.
	MaxTokens int64 `yaml:"max_tokens"`
	// Enabled judges take part in auto-judging.
	Enabled *bool `yaml:"enabled"`

	// APIKey is never read from configuration files.
	APIKey string `yaml:"-"`
}

// IsEnabled reports whether the judge takes part in auto-judging.
// Judges are enabled unless configured otherwise.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// withDefaults fills optional fields.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = c.Model
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.BaseURL == "" {
		switch c.Type {
		case TypeOllama:
			c.BaseURL = defaultOllamaURL
		case TypeTogether:
			c.BaseURL = defaultTogetherURL
		}
	}
	return c
}

// Validate checks the configuration without contacting the service.
func (c Config) Validate() error {
	switch c.Type {
	case TypeAnthropic, TypeOpenAI, TypeTogether, TypeGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: %s judge %q requires an API key", ErrConfig, c.Type, c.Name)
		}
	case TypeOllama:
	default:
		return fmt.Errorf("%w: unsupported judge type %q", ErrConfig, c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: %s judge %q requires a model", ErrConfig, c.Type, c.Name)
	}
	return nil
}
