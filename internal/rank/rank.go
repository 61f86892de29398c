// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank narrows a large candidate set to a small ordered one in
// three progressively more expensive phases: lexical (in-process BM25),
// semantic (embedding cosine similarity), and judged (one model call per
// survivor). Every phase tolerates an empty input and keeps ties in
// input order.
package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// MultiStage chains the three ranking phases with the configured caps.
type MultiStage struct {
	lexical  *Lexical
	semantic *Semantic
	judged   *Judged
	cfg      types.RankConfig
	logger   *zap.Logger
}

// NewMultiStage validates the configured caps and wires the three phases
// to the injected embedding and judge capabilities.
func NewMultiStage(embedder llm.Embedder, judge llm.Generator, cfg types.RankConfig, logger *zap.Logger) (*MultiStage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiStage{
		lexical:  &Lexical{},
		semantic: NewSemantic(embedder, cfg.AbstractPrefix),
		judged:   NewJudged(judge, cfg.JudgeCallCap, cfg.AbstractPrefix, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Rank runs the three phases in order and returns the final top candidates
// by descending judge score.
func (m *MultiStage) Rank(ctx context.Context, papers []types.Paper, query string) ([]types.Paper, error) {
	lex := m.lexical.Rank(papers, query, m.cfg.LexicalTop)

	sem, err := m.semantic.Rank(ctx, lex, query, m.cfg.SemanticTop)
	if err != nil {
		return nil, err
	}

	jud, err := m.judged.Rank(ctx, sem, query, m.cfg.JudgedTop)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("multi-stage ranking complete",
		zap.Int("candidates", len(papers)),
		zap.Int("after_lexical", len(lex)),
		zap.Int("after_semantic", len(sem)),
		zap.Int("after_judged", len(jud)))
	return jud, nil
}

// topBy returns the top papers by descending score. Equal scores keep
// their relative input order.
func topBy(papers []types.Paper, scores []float64, top int) []types.Paper {
	idx := make([]int, len(papers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if top > len(idx) {
		top = len(idx)
	}
	out := make([]types.Paper, 0, top)
	for _, i := range idx[:top] {
		out = append(out, papers[i])
	}
	return out
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
