// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"fmt"
	"math"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// Semantic ranks candidates by cosine similarity between the query
// embedding and each paper's embedding. It captures paraphrase and
// synonym relevance the lexical phase misses, at a higher per-item cost,
// so it runs on an already shrunk set.
type Semantic struct {
	embedder       llm.Embedder
	abstractPrefix int
}

// NewSemantic returns a Semantic ranker that embeds each paper's title
// plus the first abstractPrefix runes of its abstract.
func NewSemantic(embedder llm.Embedder, abstractPrefix int) *Semantic {
	if abstractPrefix <= 0 {
		abstractPrefix = 500
	}
	return &Semantic{embedder: embedder, abstractPrefix: abstractPrefix}
}

// Rank returns the top papers by descending cosine similarity. Equal
// scores keep their relative input order; an empty input yields an empty
// output with no embedding calls made.
func (s *Semantic) Rank(ctx context.Context, papers []types.Paper, query string, top int) ([]types.Paper, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = p.Title + " " + truncateRunes(p.Abstract, s.abstractPrefix)
	}
	paperVecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d papers: %w", len(papers), err)
	}

	scores := make([]float64, len(papers))
	for i, vec := range paperVecs {
		scores[i] = cosineSimilarity(queryVec, vec)
	}

	return topBy(papers, scores, top), nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
