/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/judge"
	"chainguard.dev/arena/metrics"
	"chainguard.dev/arena/retry"
	"chainguard.dev/arena/store"
	"chainguard.dev/arena/store/duckstore"
	"chainguard.dev/arena/store/memstore"
	"gopkg.in/yaml.v3"
)

// memoryDB selects the in-memory store instead of a DuckDB file.
const memoryDB = "memory"

type config struct {
	DB          string `env:"ARENA_DB,default=arena.duckdb"`
	Roster      string `env:"ARENA_JUDGES,default=judges.yaml"`
	Workers     int    `env:"ARENA_WORKERS,default=4"`
	BatchSize   int    `env:"ARENA_BATCH_SIZE,default=8"`
	MetricsPort int    `env:"METRICS_PORT,default=0"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	TogetherAPIKey  string `env:"TOGETHER_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
}

func (c config) apiKey(t judge.Type) string {
	switch t {
	case judge.TypeAnthropic:
		return c.AnthropicAPIKey
	case judge.TypeOpenAI:
		return c.OpenAIAPIKey
	case judge.TypeTogether:
		return c.TogetherAPIKey
	case judge.TypeGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func (c config) openStore(ctx context.Context) (store.Interface, error) {
	if c.DB == memoryDB {
		return memstore.New(), nil
	}
	return duckstore.Open(ctx, c.DB)
}

// roster is the judge roster file. Credentials come from the environment.
// Unset elo and retry fields keep their defaults.
type roster struct {
	Judges []judge.Config `yaml:"judges"`
	Elo    elo.Config     `yaml:"elo"`
	Retry  retry.Config   `yaml:"retry"`
}

// loadRoster reads the roster at path. A missing file yields a roster
// without judges.
func loadRoster(path string) (roster, error) {
	r := roster{Elo: elo.DefaultConfig(), Retry: retry.DefaultConfig()}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	} else if err != nil {
		return r, fmt.Errorf("reading roster: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if err := errors.Join(r.Elo.Validate(), r.Retry.Validate()); err != nil {
		return r, fmt.Errorf("roster %s: %w", path, err)
	}
	return r, nil
}

// judges builds the enabled judges, or the named ones when names is not empty.
func (r roster) judges(ctx context.Context, cfg config, names []string) ([]judge.Interface, error) {
	m := metrics.NewJudge()
	var out []judge.Interface
	for _, jc := range r.Judges {
		name := jc.Name
		if name == "" {
			name = jc.Model
		}
		if len(names) > 0 {
			if !slices.Contains(names, name) {
				continue
			}
		} else if !jc.IsEnabled() {
			continue
		}
		jc.APIKey = cfg.apiKey(jc.Type)
		j, err := judge.New(ctx, jc, judge.WithWrappers(judge.Cleaning(), judge.Retrying(r.Retry)), judge.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("judge %q: %w", name, err)
		}
		out = append(out, j)
	}
	if len(out) == 0 {
		return nil, errors.New("no judges selected; configure the roster with ARENA_JUDGES")
	}
	return out, nil
}
