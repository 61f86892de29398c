// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Lexical scores candidates against the query with BM25 over the
// concatenation of title and abstract. It exists to cheaply reject the
// bulk of an unbounded candidate set before the more expensive phases.
type Lexical struct{}

// Rank returns the top papers by descending BM25 score. Equal scores keep
// their relative input order; an empty input yields an empty output with
// no scoring performed.
func (Lexical) Rank(papers []types.Paper, query string, top int) []types.Paper {
	if len(papers) == 0 {
		return nil
	}

	docs := make([][]string, len(papers))
	docFreq := make(map[string]int)
	totalLen := 0
	for i, p := range papers {
		tokens := tokenize(p.Title + " " + p.Abstract)
		docs[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}
	avgLen := float64(totalLen) / float64(len(papers))

	queryTerms := tokenize(query)
	n := float64(len(papers))

	scores := make([]float64, len(papers))
	for i, tokens := range docs {
		termFreq := make(map[string]int, len(tokens))
		for _, t := range tokens {
			termFreq[t]++
		}
		docLen := float64(len(tokens))

		var score float64
		for _, term := range queryTerms {
			f := float64(termFreq[term])
			if f == 0 {
				continue
			}
			df := float64(docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			score += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
		scores[i] = score
	}

	return topBy(papers, scores, top)
}

// tokenize lower-cases and splits on whitespace.
func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
