// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// neutralScore is assigned when the judge's reply cannot be parsed as a
// number. The paper is still ranked, just neutrally.
const neutralScore = 5.0

// judgePromptTmpl asks the judge for a bare numeric relevance score.
var judgePromptTmpl = template.Must(template.New("judge").Parse(`Rate the relevance of this paper to the query on a scale from 0 to 10.

Query: {{.Query}}

Title: {{.Title}}
Abstract: {{.Abstract}}

Reply with a single number from 0 to 10 and nothing else.
`))

// Judged is the precision phase: one judge call per candidate, expensive
// and rate limited, so it runs last and on the smallest set.
type Judged struct {
	judge          llm.Generator
	callCap        int
	abstractPrefix int
	logger         *zap.Logger
}

// NewJudged returns a Judged ranker capped at callCap judge invocations
// per Rank call.
func NewJudged(judge llm.Generator, callCap, abstractPrefix int, logger *zap.Logger) *Judged {
	if callCap <= 0 {
		callCap = 25
	}
	if abstractPrefix <= 0 {
		abstractPrefix = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Judged{judge: judge, callCap: callCap, abstractPrefix: abstractPrefix, logger: logger}
}

// Rank scores each candidate with the judge and returns the top papers by
// descending score, ties keeping arrival order. When the input already
// fits within top it is returned unchanged with no judge calls spent.
// Candidates beyond the call cap are dropped before scoring and can never
// appear in the output. Judge calls run sequentially, in candidate order.
func (j *Judged) Rank(ctx context.Context, papers []types.Paper, query string, top int) ([]types.Paper, error) {
	if len(papers) <= top {
		return papers, nil
	}

	if len(papers) > j.callCap {
		papers = papers[:j.callCap]
	}

	scored := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.RelevanceScore = j.scoreOne(ctx, query, p)
		scored = append(scored, p)
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].RelevanceScore > scored[b].RelevanceScore
	})
	if top < len(scored) {
		scored = scored[:top]
	}
	return scored, nil
}

// scoreOne asks the judge for a relevance score. Call failures and
// unparseable replies both yield the neutral default; neither is an
// error path.
func (j *Judged) scoreOne(ctx context.Context, query string, p types.Paper) float64 {
	var buf bytes.Buffer
	err := judgePromptTmpl.Execute(&buf, struct {
		Query, Title, Abstract string
	}{
		Query:    query,
		Title:    p.Title,
		Abstract: truncateRunes(p.Abstract, j.abstractPrefix),
	})
	if err != nil {
		j.logger.Warn("rendering judge prompt", zap.String("paper", p.ID), zap.Error(err))
		return neutralScore
	}

	reply, err := j.judge.Generate(ctx, buf.String())
	if err != nil {
		j.logger.Warn("judge call failed", zap.String("paper", p.ID), zap.Error(err))
		return neutralScore
	}
	return parseScore(reply)
}

// parseScore parses the judge's reply as a number. Replies that do not
// parse get the neutral default; parsed values are clamped to [0, 10].
func parseScore(reply string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return neutralScore
	}
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
