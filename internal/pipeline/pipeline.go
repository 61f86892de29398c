// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one research run as a strictly linear
// sequence of stages over a single accumulating State. Each stage runs to
// completion before the next begins; two events bracket every stage; an
// uncaught stage failure emits exactly one error event and ends the run.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/pkg/types"
)

// Enhancer expands the user query. It degrades internally and never fails.
type Enhancer interface {
	Enhance(ctx context.Context, query string) types.EnhancedQuery
}

// Searcher returns the deduplicated union of provider results for the
// given queries. It swallows per-query failures and never fails.
type Searcher interface {
	Search(ctx context.Context, queries []string, perQuery int) []types.Paper
}

// Ranker narrows candidates to a small ordered set.
type Ranker interface {
	Rank(ctx context.Context, papers []types.Paper, query string) ([]types.Paper, error)
}

// Summarizer attaches summaries and filters papers for relevance.
type Summarizer interface {
	Summarize(ctx context.Context, papers []types.Paper) ([]types.Paper, error)
	FilterRelevant(ctx context.Context, papers []types.Paper, query string) ([]types.Paper, error)
}

// Analyst plans and writes the domain analysis.
type Analyst interface {
	Plan(ctx context.Context, papers []types.Paper, query string) (types.AnalysisPlan, error)
	Write(ctx context.Context, plan types.AnalysisPlan, papers []types.Paper) (string, error)
}

// State is the accumulator threaded through one run. Stages only add
// fields; earlier fields are never overwritten. A State belongs to
// exactly one run and is discarded at its terminal transition.
type State struct {
	UserQuery        string
	Enhanced         types.EnhancedQuery
	RawPapers        []types.Paper
	RankedPapers     []types.Paper
	SummarizedPapers []types.Paper
	FilteredPapers   []types.Paper
	Plan             types.AnalysisPlan
	Analysis         string
	FinalDocument    string
	Status           string
}

// Pipeline owns the ordered stage sequence. It holds no per-run state
// and is safe to share across connections.
type Pipeline struct {
	enhancer   Enhancer
	searcher   Searcher
	ranker     Ranker
	summarizer Summarizer
	analyst    Analyst
	perQuery   int
	logger     *zap.Logger
}

// New assembles a Pipeline from its stage collaborators. perQuery is the
// per-provider-query result cap for the search stage.
func New(enhancer Enhancer, searcher Searcher, ranker Ranker, summarizer Summarizer, analyst Analyst, perQuery int, logger *zap.Logger) *Pipeline {
	if perQuery <= 0 {
		perQuery = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		enhancer:   enhancer,
		searcher:   searcher,
		ranker:     ranker,
		summarizer: summarizer,
		analyst:    analyst,
		perQuery:   perQuery,
		logger:     logger,
	}
}

// stageDef pairs a stage with its work function and its Complete-event
// data projection.
type stageDef struct {
	stage      Stage
	inProgress string
	run        func(ctx context.Context, st *State) error
	data       func(st *State) any
}

// stages returns the fixed linear sequence. The order is the contract:
// no branching, no cycles, no overlap within a run.
func (p *Pipeline) stages() []stageDef {
	return []stageDef{
		{
			stage:      StageQueryProcessing,
			inProgress: "Processing query...",
			run: func(ctx context.Context, st *State) error {
				st.Enhanced = p.enhancer.Enhance(ctx, st.UserQuery)
				st.Status = "Query processed"
				return nil
			},
			data: func(st *State) any { return st.Enhanced },
		},
		{
			stage:      StageSearching,
			inProgress: "Searching providers...",
			run: func(ctx context.Context, st *State) error {
				queries := st.Enhanced.SearchQueries
				if len(queries) == 0 {
					queries = []string{st.UserQuery}
				}
				st.RawPapers = p.searcher.Search(ctx, queries, p.perQuery)
				st.Status = "Papers found"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{
					"count":  len(st.RawPapers),
					"papers": firstN(st.RawPapers, 5),
				}
			},
		},
		{
			stage:      StageRanking,
			inProgress: "Ranking papers...",
			run: func(ctx context.Context, st *State) error {
				ranked, err := p.ranker.Rank(ctx, st.RawPapers, st.UserQuery)
				if err != nil {
					return err
				}
				st.RankedPapers = ranked
				st.Status = "Papers ranked"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{"top_papers": firstN(st.RankedPapers, 5)}
			},
		},
		{
			stage:      StageSummarizing,
			inProgress: "Creating summaries...",
			run: func(ctx context.Context, st *State) error {
				summarized, err := p.summarizer.Summarize(ctx, st.RankedPapers)
				if err != nil {
					return err
				}
				st.SummarizedPapers = summarized
				st.Status = "Papers summarized"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{"summaries": summaryPreviews(st.SummarizedPapers)}
			},
		},
		{
			stage:      StageFiltering,
			inProgress: "Filtering relevant papers...",
			run: func(ctx context.Context, st *State) error {
				filtered, err := p.summarizer.FilterRelevant(ctx, st.SummarizedPapers, st.UserQuery)
				if err != nil {
					return err
				}
				st.FilteredPapers = filtered
				st.Status = "Papers filtered"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{"relevant_count": len(st.FilteredPapers)}
			},
		},
		{
			stage:      StageAnalysis,
			inProgress: "Creating domain analysis...",
			run: func(ctx context.Context, st *State) error {
				plan, err := p.analyst.Plan(ctx, st.FilteredPapers, st.UserQuery)
				if err != nil {
					return err
				}
				st.Plan = plan

				analysis, err := p.analyst.Write(ctx, plan, st.FilteredPapers)
				if err != nil {
					return err
				}
				st.Analysis = analysis
				st.Status = "Analysis created"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{"plan": st.Plan}
			},
		},
		{
			stage:      StageFormatting,
			inProgress: "Formatting document...",
			run: func(_ context.Context, st *State) error {
				st.FinalDocument = report.Document(st.Analysis, st.FilteredPapers)
				st.Status = "Document formatted"
				return nil
			},
			data: func(st *State) any {
				return map[string]any{"document": st.FinalDocument}
			},
		},
	}
}

// Run executes the pipeline for one query, emitting an in-progress and a
// Complete event around each stage and a terminal complete event with the
// final document. A cancelled context ends the run silently at the next
// stage boundary; a stage failure emits one error event; either way no
// partial document is produced. The returned State is complete only when
// err is nil.
func (p *Pipeline) Run(ctx context.Context, query string, emit EventSink) (*State, error) {
	st := &State{UserQuery: query, Status: "Started"}

	for _, def := range p.stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := emit(StageEvent{Stage: def.stage, Status: def.inProgress}); err != nil {
			return nil, err
		}

		if err := def.run(ctx, st); err != nil {
			// A severed connection is normal termination, not an error.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Error("stage failed", zap.String("stage", string(def.stage)), zap.Error(err))
			if emitErr := emit(StageEvent{Stage: StageError, Status: err.Error()}); emitErr != nil {
				p.logger.Warn("error event not delivered", zap.Error(emitErr))
			}
			return nil, err
		}

		if err := emit(StageEvent{Stage: def.stage, Status: StatusComplete, Data: def.data(st)}); err != nil {
			return nil, err
		}
	}

	err := emit(StageEvent{
		Stage:  StageComplete,
		Status: "Research complete",
		Data: map[string]any{
			"document": st.FinalDocument,
			"papers":   st.FilteredPapers,
		},
	})
	if err != nil {
		return nil, err
	}

	st.Status = "Complete"
	return st, nil
}

func firstN(papers []types.Paper, n int) []types.Paper {
	if len(papers) < n {
		n = len(papers)
	}
	return papers[:n]
}

// summaryPreviews projects the first three summarized papers into short
// title/summary pairs for the summarizing Complete event.
func summaryPreviews(papers []types.Paper) []map[string]string {
	previews := make([]map[string]string, 0, 3)
	for _, p := range firstN(papers, 3) {
		summary := p.Summary
		if r := []rune(summary); len(r) > 200 {
			summary = string(r[:200])
		}
		previews = append(previews, map[string]string{
			"title":   p.Title,
			"summary": summary,
		})
	}
	return previews
}
