// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enhance expands a free-text research question into provider
// queries and keywords via the text-generation service. An unparseable
// model reply degrades to passing the raw query through; it never fails
// the run.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// enhancePromptTmpl instructs the model to reformulate the query as JSON.
var enhancePromptTmpl = template.Must(template.New("enhance").Parse(`You are an expert in academic literature search. Improve and expand the search query below.

Original query: {{.Query}}

Generate 3-5 improved query variants for searching academic paper indexes.
Include synonyms and closely related technical terms.

Respond with a JSON object and nothing else:
{"enhanced_queries": ["...", "..."], "search_queries": ["...", "..."], "keywords": ["...", "..."]}
`))

// Enhancer expands user queries through an injected Generator.
type Enhancer struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewEnhancer returns an Enhancer backed by gen.
func NewEnhancer(gen llm.Generator, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{gen: gen, logger: logger}
}

// Enhance expands query. When the model reply is not valid JSON, or the
// model call itself fails, the degraded expansion (raw query and its
// whitespace-split keywords) is returned instead; this is the documented
// fallback, not an error.
func (e *Enhancer) Enhance(ctx context.Context, query string) types.EnhancedQuery {
	var buf bytes.Buffer
	if err := enhancePromptTmpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		e.logger.Warn("rendering enhancement prompt", zap.Error(err))
		return types.FallbackEnhancedQuery(query)
	}

	reply, err := e.gen.Generate(ctx, buf.String())
	if err != nil {
		e.logger.Warn("query enhancement call failed", zap.Error(err))
		return types.FallbackEnhancedQuery(query)
	}

	var enhanced types.EnhancedQuery
	if err := json.Unmarshal([]byte(extractJSON(reply)), &enhanced); err != nil {
		e.logger.Warn("unparseable enhancement reply", zap.Error(err))
		return types.FallbackEnhancedQuery(query)
	}
	if len(enhanced.SearchQueries) == 0 {
		enhanced.SearchQueries = []string{query}
	}
	if len(enhanced.EnhancedQueries) == 0 {
		enhanced.EnhancedQueries = []string{query}
	}
	return enhanced
}

// extractJSON returns the first top-level JSON object in s, tolerating
// models that wrap their answer in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
