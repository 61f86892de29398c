// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze plans and writes the domain analysis over the filtered
// papers. The plan is requested as JSON from the text-generation service
// with a deterministic fallback outline when the reply does not parse;
// the body sections are then written one model call each.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

var planPromptTmpl = template.Must(template.New("plan").Parse(`Create an outline for a domain analysis based on these papers.

User query: {{.Query}}

Papers found:
{{.Papers}}

Respond with a JSON object and nothing else:
{"title": "...", "sections": [{"title": "...", "content_plan": "...", "papers_refs": [1, 2]}], "conclusion_plan": "..."}

papers_refs are 1-based indices into the paper list above.
`))

var sectionPromptTmpl = template.Must(template.New("section").Parse(`Write one section of an academic domain analysis.

Section title: {{.Title}}
Section plan: {{.Plan}}

Draw on these papers:
{{.Papers}}

Write 200-300 words of coherent prose. Do not include the section heading.
`))

var conclusionPromptTmpl = template.Must(template.New("conclusion").Parse(`Write the conclusion of a domain analysis.

Conclusion plan: {{.Plan}}

Briefly summarize the main findings in 100-150 words.
`))

// Analyst plans and writes the analysis through an injected Generator.
type Analyst struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewAnalyst returns an Analyst backed by gen.
func NewAnalyst(gen llm.Generator, logger *zap.Logger) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{gen: gen, logger: logger}
}

// Plan asks the model for a structured outline over the first ten papers.
// An unparseable reply degrades to the fixed fallback outline; a failed
// model call is an error.
func (a *Analyst) Plan(ctx context.Context, papers []types.Paper, query string) (types.AnalysisPlan, error) {
	listed := papers
	if len(listed) > 10 {
		listed = listed[:10]
	}
	var lines []string
	for i, p := range listed {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, p.Title, paperDigest(p, 200)))
	}

	var buf bytes.Buffer
	err := planPromptTmpl.Execute(&buf, struct{ Query, Papers string }{
		Query:  query,
		Papers: strings.Join(lines, "\n"),
	})
	if err != nil {
		return types.AnalysisPlan{}, err
	}

	reply, err := a.gen.Generate(ctx, buf.String())
	if err != nil {
		return types.AnalysisPlan{}, fmt.Errorf("planning analysis: %w", err)
	}

	var plan types.AnalysisPlan
	if err := json.Unmarshal([]byte(extractJSON(reply)), &plan); err != nil || len(plan.Sections) == 0 {
		a.logger.Warn("unparseable analysis plan, using fallback outline", zap.Error(err))
		return fallbackPlan(query, len(papers)), nil
	}
	return plan, nil
}

// Write produces the full analysis document from the plan: title, one
// written section per planned section, and a conclusion.
func (a *Analyst) Write(ctx context.Context, plan types.AnalysisPlan, papers []types.Paper) (string, error) {
	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", plan.Title)

	for _, section := range plan.Sections {
		var refs []string
		for _, ref := range section.PaperRefs {
			if ref >= 1 && ref <= len(papers) {
				p := papers[ref-1]
				refs = append(refs, fmt.Sprintf("- %s: %s", p.Title, paperDigest(p, 300)))
			}
		}

		var buf bytes.Buffer
		err := sectionPromptTmpl.Execute(&buf, struct{ Title, Plan, Papers string }{
			Title:  section.Title,
			Plan:   section.ContentPlan,
			Papers: strings.Join(refs, "\n"),
		})
		if err != nil {
			return "", err
		}

		text, err := a.gen.Generate(ctx, buf.String())
		if err != nil {
			return "", fmt.Errorf("writing section %q: %w", section.Title, err)
		}
		fmt.Fprintf(&doc, "## %s\n\n%s\n\n", section.Title, strings.TrimSpace(text))
	}

	var buf bytes.Buffer
	if err := conclusionPromptTmpl.Execute(&buf, struct{ Plan string }{Plan: plan.ConclusionPlan}); err != nil {
		return "", err
	}
	conclusion, err := a.gen.Generate(ctx, buf.String())
	if err != nil {
		return "", fmt.Errorf("writing conclusion: %w", err)
	}
	fmt.Fprintf(&doc, "## Conclusion\n\n%s\n", strings.TrimSpace(conclusion))

	return doc.String(), nil
}

// fallbackPlan is the deterministic outline used when the planned JSON
// does not parse: introduction, approaches, and results sections over
// the first few papers.
func fallbackPlan(query string, paperCount int) types.AnalysisPlan {
	refs := func(max int) []int {
		if paperCount < max {
			max = paperCount
		}
		out := make([]int, 0, max)
		for i := 1; i <= max; i++ {
			out = append(out, i)
		}
		return out
	}
	return types.AnalysisPlan{
		Title: "Domain analysis: " + query,
		Sections: []types.PlanSection{
			{Title: "Introduction", ContentPlan: "General overview of the topic", PaperRefs: refs(3)},
			{Title: "Main approaches", ContentPlan: "Methods and approaches in the literature", PaperRefs: refs(6)},
			{Title: "Results and applications", ContentPlan: "Practical results and applications", PaperRefs: refs(5)},
		},
		ConclusionPlan: "Findings and open directions",
	}
}

// paperDigest prefers the generated summary over the raw abstract.
func paperDigest(p types.Paper, limit int) string {
	text := p.Summary
	if text == "" {
		text = p.Abstract
	}
	r := []rune(text)
	if len(r) > limit {
		return string(r[:limit])
	}
	return text
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
