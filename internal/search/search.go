// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries a bibliographic provider and returns unified,
// deduplicated candidate papers. Provider queries fan out across a bounded
// worker pool; a failing query contributes zero candidates and never
// aborts the others.
package search

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/pkg/types"
)

// Backend searches a single bibliographic provider for one query string,
// returning at most limit candidate records.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Paper, error)
}

// Aggregator issues provider queries concurrently and merges their results.
type Aggregator struct {
	backend Backend
	workers int
	logger  *zap.Logger
}

// NewAggregator returns an Aggregator that runs at most workers provider
// calls in flight at once.
func NewAggregator(backend Backend, workers int, logger *zap.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{backend: backend, workers: workers, logger: logger}
}

type queryResult struct {
	query  string
	papers []types.Paper
	err    error
}

// Search fans the queries out over the worker pool, waits for all of them
// to resolve, and returns the deduplicated union of the successful ones.
// Duplicates share a Paper.ID; the record from whichever query completed
// first is retained. Provider failures are logged and contribute nothing;
// when every query fails the result is simply empty. The returned
// collection carries no meaningful order.
func (a *Aggregator) Search(ctx context.Context, queries []string, perQuery int) []types.Paper {
	if len(queries) == 0 {
		return nil
	}

	// Each run owns its own pool so concurrent runs cannot starve each
	// other of worker slots.
	pool, err := ants.NewPool(a.workers)
	if err != nil {
		a.logger.Error("creating search worker pool", zap.Error(err))
		return nil
	}
	defer pool.Release()

	results := make(chan queryResult, len(queries))
	var wg sync.WaitGroup

	for _, q := range queries {
		wg.Add(1)
		query := q
		submitErr := pool.Submit(func() {
			defer wg.Done()
			papers, err := a.backend.Search(ctx, query, perQuery)
			results <- queryResult{query: query, papers: papers, err: err}
		})
		if submitErr != nil {
			results <- queryResult{query: query, err: submitErr}
			wg.Done()
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var merged []types.Paper
	for r := range results {
		if r.err != nil {
			a.logger.Warn("provider query failed",
				zap.String("query", r.query), zap.Error(r.err))
			continue
		}
		for _, p := range r.papers {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	return merged
}
