// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/litreview/pkg/types"
)

// fakeGen replies based on the first matching prompt substring.
type fakeGen struct {
	replies map[string]string
	errs    map[string]error
	calls   int
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	for key, reply := range f.replies {
		if strings.Contains(prompt, key) {
			if err := f.errs[key]; err != nil {
				return "", err
			}
			return reply, nil
		}
	}
	return "generated prose", nil
}

func somePapers(n int) []types.Paper {
	var papers []types.Paper
	for i := 0; i < n; i++ {
		papers = append(papers, types.Paper{
			ID:       fmt.Sprintf("p%d", i+1),
			Title:    fmt.Sprintf("Paper %d", i+1),
			Abstract: "An abstract.",
		})
	}
	return papers
}

// --- Plan ---

func TestPlanParsesModelOutline(t *testing.T) {
	gen := &fakeGen{replies: map[string]string{
		"Create an outline": `{
			"title": "Survey of transformers",
			"sections": [
				{"title": "Background", "content_plan": "History", "papers_refs": [1, 2]},
				{"title": "Methods", "content_plan": "Architectures", "papers_refs": [3]}
			],
			"conclusion_plan": "Wrap up"
		}`,
	}}
	a := NewAnalyst(gen, nil)

	plan, err := a.Plan(context.Background(), somePapers(5), "transformers")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Title != "Survey of transformers" {
		t.Errorf("Title = %q", plan.Title)
	}
	if len(plan.Sections) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(plan.Sections))
	}
	if got := plan.Sections[0].PaperRefs; len(got) != 2 || got[0] != 1 {
		t.Errorf("PaperRefs = %v", got)
	}
}

func TestPlanFallsBackOnGarbage(t *testing.T) {
	gen := &fakeGen{replies: map[string]string{
		"Create an outline": "no JSON here",
	}}
	a := NewAnalyst(gen, nil)

	plan, err := a.Plan(context.Background(), somePapers(8), "spiking networks")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3 fallback sections", len(plan.Sections))
	}
	wantTitles := []string{"Introduction", "Main approaches", "Results and applications"}
	wantRefs := []int{3, 6, 5}
	for i, s := range plan.Sections {
		if s.Title != wantTitles[i] {
			t.Errorf("Sections[%d].Title = %q, want %q", i, s.Title, wantTitles[i])
		}
		if len(s.PaperRefs) != wantRefs[i] {
			t.Errorf("Sections[%d] has %d refs, want %d", i, len(s.PaperRefs), wantRefs[i])
		}
	}
	if !strings.Contains(plan.Title, "spiking networks") {
		t.Errorf("Title = %q, should mention the query", plan.Title)
	}
}

func TestPlanFallbackClampsRefsToPaperCount(t *testing.T) {
	gen := &fakeGen{replies: map[string]string{"Create an outline": "garbage"}}
	a := NewAnalyst(gen, nil)

	plan, err := a.Plan(context.Background(), somePapers(2), "query")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i, s := range plan.Sections {
		if len(s.PaperRefs) > 2 {
			t.Errorf("Sections[%d] refs %v exceed paper count", i, s.PaperRefs)
		}
	}
}

func TestPlanCallFailureIsError(t *testing.T) {
	gen := &fakeGen{
		replies: map[string]string{"Create an outline": ""},
		errs:    map[string]error{"Create an outline": fmt.Errorf("model unavailable")},
	}
	a := NewAnalyst(gen, nil)

	if _, err := a.Plan(context.Background(), somePapers(3), "query"); err == nil {
		t.Error("expected error when the plan call fails")
	}
}

func TestPlanListsAtMostTenPapers(t *testing.T) {
	var sawPrompt string
	gen := &fakeGen{replies: map[string]string{"Create an outline": "garbage"}}
	a := NewAnalyst(&promptRecorder{inner: gen, out: &sawPrompt}, nil)

	if _, err := a.Plan(context.Background(), somePapers(15), "query"); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if strings.Contains(sawPrompt, "Paper 11") {
		t.Error("plan prompt should list at most ten papers")
	}
	if !strings.Contains(sawPrompt, "Paper 10") {
		t.Error("plan prompt should include the tenth paper")
	}
}

type promptRecorder struct {
	inner *fakeGen
	out   *string
}

func (r *promptRecorder) Generate(ctx context.Context, prompt string) (string, error) {
	*r.out = prompt
	return r.inner.Generate(ctx, prompt)
}

// --- Write ---

func TestWriteProducesSectionsAndConclusion(t *testing.T) {
	gen := &fakeGen{replies: map[string]string{
		"Section title: Background": "The field began with early work.",
		"Section title: Methods":    "Several architectures dominate.",
		"Write the conclusion":      "In summary, much remains open.",
	}}
	a := NewAnalyst(gen, nil)

	plan := types.AnalysisPlan{
		Title: "Survey",
		Sections: []types.PlanSection{
			{Title: "Background", ContentPlan: "History", PaperRefs: []int{1}},
			{Title: "Methods", ContentPlan: "Architectures", PaperRefs: []int{2}},
		},
		ConclusionPlan: "Wrap up",
	}
	doc, err := a.Write(context.Background(), plan, somePapers(3))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, want := range []string{
		"# Survey",
		"## Background",
		"The field began with early work.",
		"## Methods",
		"## Conclusion",
		"In summary, much remains open.",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestWriteIgnoresOutOfRangeRefs(t *testing.T) {
	gen := &fakeGen{}
	a := NewAnalyst(gen, nil)

	plan := types.AnalysisPlan{
		Title: "Survey",
		Sections: []types.PlanSection{
			{Title: "Background", PaperRefs: []int{0, 99}},
		},
	}
	if _, err := a.Write(context.Background(), plan, somePapers(2)); err != nil {
		t.Fatalf("Write should tolerate out-of-range refs: %v", err)
	}
}

func TestWriteSectionFailureIsError(t *testing.T) {
	gen := &fakeGen{
		replies: map[string]string{"Section title: Background": ""},
		errs:    map[string]error{"Section title: Background": fmt.Errorf("model unavailable")},
	}
	a := NewAnalyst(gen, nil)

	plan := types.AnalysisPlan{
		Title:    "Survey",
		Sections: []types.PlanSection{{Title: "Background"}},
	}
	if _, err := a.Write(context.Background(), plan, somePapers(1)); err == nil {
		t.Error("expected error when a section call fails")
	}
}

// --- helpers ---

func TestPaperDigestPrefersSummary(t *testing.T) {
	p := types.Paper{Abstract: "raw abstract", Summary: "clean summary"}
	if got := paperDigest(p, 100); got != "clean summary" {
		t.Errorf("paperDigest = %q, want summary", got)
	}
	p.Summary = ""
	if got := paperDigest(p, 100); got != "raw abstract" {
		t.Errorf("paperDigest = %q, want abstract", got)
	}
	if got := paperDigest(p, 3); got != "raw" {
		t.Errorf("paperDigest = %q, want truncated", got)
	}
}
