// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds the metadata for one candidate research record as returned
// by a bibliographic search provider and enriched by the pipeline stages.
// Stages copy and subset paper collections; a Paper is never mutated once
// it has entered the final document.
type Paper struct {
	// ID is the stable provider identifier (e.g. "2301.07041"). It is the
	// deduplication key: within any collection produced by the search
	// aggregator, IDs are unique.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the first publication or preprint date.
	Published time.Time `json:"published,omitzero" yaml:"published,omitempty"`

	// Updated is the date of the latest revision, when the provider reports one.
	Updated time.Time `json:"updated,omitzero" yaml:"updated,omitempty"`

	// Categories lists the provider's subject tags (e.g. "cs.LG").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// PDFURL is the full-text link, when available.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// DOI is the Digital Object Identifier, when available.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// JournalRef is the journal reference string, when available.
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`

	// RelevanceScore is the judge-assigned relevance on a 0-10 scale.
	// It is attached by the judged ranking stage and zero before it.
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// Summary is the generated summary attached by the summarization stage.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Year returns the publication year, or zero when no date is known.
func (p Paper) Year() int {
	if p.Published.IsZero() {
		return 0
	}
	return p.Published.Year()
}
