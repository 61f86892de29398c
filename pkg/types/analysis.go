// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AnalysisPlan is the structured outline the analysis stage writes from.
type AnalysisPlan struct {
	// Title is the heading of the analysis document.
	Title string `json:"title" yaml:"title"`

	// Sections are the planned body sections in order.
	Sections []PlanSection `json:"sections" yaml:"sections"`

	// ConclusionPlan describes what the conclusion should cover.
	ConclusionPlan string `json:"conclusion_plan" yaml:"conclusion_plan"`
}

// PlanSection is one planned section of the analysis document.
type PlanSection struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// ContentPlan describes what the section should contain.
	ContentPlan string `json:"content_plan" yaml:"content_plan"`

	// PaperRefs are 1-based indices into the filtered paper collection
	// naming the sources the section draws on.
	PaperRefs []int `json:"papers_refs" yaml:"papers_refs"`
}
