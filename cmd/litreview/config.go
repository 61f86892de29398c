// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/analyze"
	"github.com/pdiddy/litreview/internal/enhance"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/internal/rank"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/summarize"
	"github.com/pdiddy/litreview/pkg/types"
)

func setConfigDefaults() {
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "litreview/"+version)
	viper.SetDefault("search.max_per_query", 30)
	viper.SetDefault("search.workers", 5)

	viper.SetDefault("rank.lexical_top", 50)
	viper.SetDefault("rank.semantic_top", 25)
	viper.SetDefault("rank.judged_top", 10)
	viper.SetDefault("rank.judge_call_cap", 25)
	viper.SetDefault("rank.abstract_prefix", 500)

	viper.SetDefault("model.base_url", "http://localhost:11434/v1")
	viper.SetDefault("model.model", "llama3")
	viper.SetDefault("model.embedding_model", "nomic-embed-text")

	viper.SetDefault("summarize.workers", 5)

	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.receive_timeout", 120*time.Second)

	viper.SetDefault("archive.enabled", true)
	viper.SetDefault("archive.dir", "archive")
}

// loadConfig merges defaults, the config file, and environment variables
// into a validated PipelineConfig.
func loadConfig() (types.PipelineConfig, error) {
	setConfigDefaults()

	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.Model.APIKey = secretDefault("model-api-key", cfg.Model.APIKey)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildPipeline wires every stage into a runnable Pipeline.
func buildPipeline(cfg types.PipelineConfig, logger *zap.Logger) (*pipeline.Pipeline, error) {
	client, err := llm.NewClient(cfg.Model)
	if err != nil {
		return nil, err
	}

	backend := search.NewArxivBackend(cfg.Search)
	searcher := search.NewAggregator(backend, cfg.Search.Workers, logger)

	ranker, err := rank.NewMultiStage(client, client, cfg.Rank, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		enhance.NewEnhancer(client, logger),
		searcher,
		ranker,
		summarize.NewSummarizer(client, cfg.Summarize.Workers, logger),
		analyze.NewAnalyst(client, logger),
		cfg.Search.MaxPerQuery,
		logger,
	), nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}
