// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litreview pipeline.
package types

import "strings"

// EnhancedQuery is the output of query expansion: reformulations of the
// user's free-text question for display and for provider searches.
// It is created once per pipeline run and immutable afterward.
type EnhancedQuery struct {
	// EnhancedQueries are human-readable expanded variants of the question.
	EnhancedQueries []string `json:"enhanced_queries" yaml:"enhanced_queries"`

	// SearchQueries are provider-ready query strings fed to the search
	// aggregator.
	SearchQueries []string `json:"search_queries" yaml:"search_queries"`

	// Keywords are the key terms extracted from the question.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// FallbackEnhancedQuery returns the degraded expansion used when the
// enhancer's output cannot be parsed: the raw query passes through
// unchanged and keywords are its whitespace-separated terms.
func FallbackEnhancedQuery(query string) EnhancedQuery {
	return EnhancedQuery{
		EnhancedQueries: []string{query},
		SearchQueries:   []string{query},
		Keywords:        strings.Fields(query),
	}
}
