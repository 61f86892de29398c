// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litreview/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxPerQuery is the result cap for each provider query (default 30).
	MaxPerQuery int `json:"max_per_query" yaml:"max_per_query" mapstructure:"max_per_query"`

	// Workers bounds the number of concurrent in-flight provider calls
	// (default 5).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// RankConfig holds the result caps for the three ranking stages.
// The caps must be strictly decreasing: lexical > semantic > judged.
type RankConfig struct {
	// LexicalTop is the survivor count of the lexical stage (default 50).
	LexicalTop int `json:"lexical_top" yaml:"lexical_top" mapstructure:"lexical_top"`

	// SemanticTop is the survivor count of the semantic stage (default 25).
	SemanticTop int `json:"semantic_top" yaml:"semantic_top" mapstructure:"semantic_top"`

	// JudgedTop is the survivor count of the judged stage (default 10).
	JudgedTop int `json:"judged_top" yaml:"judged_top" mapstructure:"judged_top"`

	// JudgeCallCap is the hard ceiling on judge invocations per run
	// (default 25). Papers beyond the cap are dropped before scoring.
	JudgeCallCap int `json:"judge_call_cap" yaml:"judge_call_cap" mapstructure:"judge_call_cap"`

	// AbstractPrefix is the abstract truncation length used when building
	// embedding inputs and judge prompts (default 500).
	AbstractPrefix int `json:"abstract_prefix" yaml:"abstract_prefix" mapstructure:"abstract_prefix"`
}

// Validate checks the strictly-decreasing cap constraint.
func (c RankConfig) Validate() error {
	if c.LexicalTop <= 0 || c.SemanticTop <= 0 || c.JudgedTop <= 0 {
		return fmt.Errorf("ranking caps must be positive: lexical=%d semantic=%d judged=%d",
			c.LexicalTop, c.SemanticTop, c.JudgedTop)
	}
	if c.LexicalTop <= c.SemanticTop || c.SemanticTop <= c.JudgedTop {
		return fmt.Errorf("ranking caps must be strictly decreasing: lexical=%d semantic=%d judged=%d",
			c.LexicalTop, c.SemanticTop, c.JudgedTop)
	}
	if c.JudgeCallCap <= 0 {
		return fmt.Errorf("judge call cap must be positive: %d", c.JudgeCallCap)
	}
	return nil
}

// ModelConfig holds connection settings for the text-generation and
// embedding services.
type ModelConfig struct {
	// BaseURL is the OpenAI-compatible API endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the authentication key, when the endpoint requires one.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Model is the completion model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model"`
}

// SummarizeConfig holds settings for the summarization stage.
type SummarizeConfig struct {
	// Workers bounds the number of concurrent per-paper summary calls
	// (default 5).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// ServerConfig holds settings for the streaming server.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ReceiveTimeout bounds how long the server waits for the next client
	// query before closing the connection (default 120s).
	ReceiveTimeout time.Duration `json:"receive_timeout" yaml:"receive_timeout" mapstructure:"receive_timeout"`
}

// ArchiveConfig holds settings for the completed-run archive.
type ArchiveConfig struct {
	// Enabled controls whether completed runs are persisted.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory holding the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Rank      RankConfig      `json:"rank" yaml:"rank" mapstructure:"rank"`
	Model     ModelConfig     `json:"model" yaml:"model" mapstructure:"model"`
	Summarize SummarizeConfig `json:"summarize" yaml:"summarize" mapstructure:"summarize"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive" mapstructure:"archive"`
}

// Validate checks cross-field constraints on the whole configuration.
func (c PipelineConfig) Validate() error {
	if err := c.Rank.Validate(); err != nil {
		return fmt.Errorf("rank config: %w", err)
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("search config: workers must be positive: %d", c.Search.Workers)
	}
	if c.Summarize.Workers <= 0 {
		return fmt.Errorf("summarize config: workers must be positive: %d", c.Summarize.Workers)
	}
	return nil
}
