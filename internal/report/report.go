// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the final research document: metadata header,
// analysis body, and a numbered bibliography.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// now is stubbed in tests to make the metadata header deterministic.
var now = time.Now

// FormatCitation renders one bibliography entry: authors (first three,
// then "et al."), title, venue, year, and identifiers.
func FormatCitation(p types.Paper) string {
	var authors string
	switch {
	case len(p.Authors) == 0:
		authors = ""
	case len(p.Authors) > 3:
		authors = p.Authors[0] + " et al."
	default:
		authors = strings.Join(p.Authors, ", ")
	}

	title := strings.Join(strings.Fields(p.Title), " ")

	year := p.Year()
	if year == 0 {
		year = now().Year()
	}

	venue := p.JournalRef
	if venue == "" {
		venue = "arXiv preprint"
	}

	citation := fmt.Sprintf("%s %s // %s. %d.", authors, title, venue, year)
	if p.DOI != "" {
		citation += fmt.Sprintf(" DOI: %s.", p.DOI)
	}
	if p.PDFURL != "" {
		citation += fmt.Sprintf(" URL: %s", p.PDFURL)
	}
	return strings.TrimSpace(citation)
}

// Bibliography renders the numbered reference list for papers.
func Bibliography(papers []types.Paper) string {
	var b strings.Builder
	b.WriteString("## References\n\n")
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, FormatCitation(p))
	}
	return b.String()
}

// Document assembles the complete deliverable: a metadata block, the
// analysis body, and the bibliography of the papers it cites.
func Document(analysis string, papers []types.Paper) string {
	metadata := fmt.Sprintf("---\nCreated: %s\nSources: %d\n---\n",
		now().Format("2006-01-02"), len(papers))

	var b strings.Builder
	b.WriteString(metadata)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(analysis))
	b.WriteString("\n\n")
	b.WriteString(Bibliography(papers))
	return b.String()
}
