package extract

import "regexp"

// All keyword and pattern tables used to read LLM output live here. The
// classifiers are plain substring/regex heuristics over free text, so any
// change to a prompt template that alters these markers must be mirrored in
// this file.

// DefaultChapterCount is returned when no chapter count can be read from a
// design document.
const DefaultChapterCount = 5

var (
	// "Chapter 3:" headings.
	chapterHeadingRe = regexp.MustCompile(`(?i)chapter\s+(\d+)\s*:`)
	// "3." numbered items, anywhere in the text.
	numberedItemRe = regexp.MustCompile(`(\d+)\.`)
	// "8 chapters" statements.
	chapterTotalRe = regexp.MustCompile(`(?i)(\d+)\s+chapters?\b`)
)

// decisionMarkers is checked in order; the first marker found in the
// case-folded review decides. APPROVED is deliberately first.
var decisionMarkers = []struct {
	decision Decision
	tokens   []string
}{
	{Approved, []string{"approved"}},
	{MinorRevisions, []string{"minor_revisions", "minor revisions"}},
	{MajorRevisions, []string{"major_revisions", "major revisions"}},
	{Reject, []string{"reject"}},
}

// notesStartMarkers open a feedback section when contained in an
// upper-cased line.
var notesStartMarkers = []string{
	"SPECIFIC ISSUES",
	"RECOMMENDATIONS",
	"REQUIRED CHANGES",
	"CORRECTIONS",
}

// notesStopPrefixes close a feedback section when an upper-cased line starts
// with them.
var notesStopPrefixes = []string{
	"OVERALL",
	"DECISION",
	"SUMMARY",
}

// verdictRejectMarker overrides verdictPublishMarker, which it contains.
const (
	verdictPublishMarker = "PUBLISH"
	verdictRejectMarker  = "DO NOT PUBLISH"
	verdictReviseMarker  = "REVISE"
)
