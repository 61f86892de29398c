// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the text-generation and embedding services the
// pipeline depends on. Stages receive these capabilities as injected
// interfaces so tests can substitute deterministic fakes.
package llm

import "context"

// Generator produces a text completion for a prompt. Implementations make
// no guarantee about latency or about the shape of the returned text; all
// parsing of the output is the caller's responsibility.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text into a fixed-dimensional vector space. Any
// deterministic text-to-vector function satisfies the contract.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns vectors for several texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
