// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize produces per-paper summaries and filters papers for
// relevance through the text-generation service. Summaries run fully
// concurrently, one call per paper, and are reassembled in input order;
// relevance filtering runs sequentially, one judge call at a time.
package summarize

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Write a concise summary of this research paper.

Title: {{.Title}}
Authors: {{.Authors}}
Abstract: {{.Abstract}}

The summary must cover:
1. The core problem or task
2. The proposed method or approach
3. The main results
4. Practical significance

At most 200 words.
`))

var filterPromptTmpl = template.Must(template.New("filter").Parse(`Decide whether this paper is relevant to the query.

Query: {{.Query}}

Paper summary:
{{.Summary}}

Answer with exactly one word: YES or NO.
`))

// Summarizer enriches papers with summaries and filters them for
// relevance through an injected Generator.
type Summarizer struct {
	gen     llm.Generator
	workers int
	logger  *zap.Logger
}

// NewSummarizer returns a Summarizer running at most workers concurrent
// summary calls.
func NewSummarizer(gen llm.Generator, workers int, logger *zap.Logger) *Summarizer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{gen: gen, workers: workers, logger: logger}
}

// Summarize returns a copy of papers with Summary attached to each. The
// per-paper calls share no state and run concurrently; the output is
// reassembled in input order. The first failing call fails the stage.
func (s *Summarizer) Summarize(ctx context.Context, papers []types.Paper) ([]types.Paper, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	out := make([]types.Paper, len(papers))
	errs := make([]error, len(papers))
	var wg sync.WaitGroup

	for i, p := range papers {
		wg.Add(1)
		i, p := i, p
		submitErr := pool.Submit(func() {
			defer wg.Done()
			summary, err := s.summarizeOne(ctx, p)
			if err != nil {
				errs[i] = err
				return
			}
			p.Summary = summary
			out[i] = p
		})
		if submitErr != nil {
			errs[i] = submitErr
			wg.Done()
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Summarizer) summarizeOne(ctx context.Context, p types.Paper) (string, error) {
	authors := p.Authors
	if len(authors) > 3 {
		authors = authors[:3]
	}

	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct {
		Title, Authors, Abstract string
	}{
		Title:    p.Title,
		Authors:  strings.Join(authors, ", "),
		Abstract: truncateRunes(p.Abstract, 1500),
	})
	if err != nil {
		return "", err
	}
	return s.gen.Generate(ctx, buf.String())
}

// FilterRelevant keeps the papers the judge deems relevant to the query.
// Calls run sequentially in candidate order. A reply that is neither a
// clear yes nor a clear no keeps the paper; dropping it on garbage output
// would silently lose reachable sources.
func (s *Summarizer) FilterRelevant(ctx context.Context, papers []types.Paper, query string) ([]types.Paper, error) {
	var relevant []types.Paper
	for _, p := range papers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := p.Summary
		if text == "" {
			text = truncateRunes(p.Abstract, 500)
		}

		var buf bytes.Buffer
		if err := filterPromptTmpl.Execute(&buf, struct{ Query, Summary string }{Query: query, Summary: text}); err != nil {
			return nil, err
		}

		reply, err := s.gen.Generate(ctx, buf.String())
		if err != nil {
			return nil, err
		}

		if keepPaper(reply) {
			relevant = append(relevant, p)
		}
	}
	return relevant, nil
}

// keepPaper interprets the judge's yes/no reply. Only an unambiguous
// "no" drops the paper.
func keepPaper(reply string) bool {
	upper := strings.ToUpper(reply)
	if strings.Contains(upper, "YES") {
		return true
	}
	if strings.Contains(upper, "NO") {
		return false
	}
	return true
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
