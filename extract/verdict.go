package extract

import "strings"

// Verdict is the publishing evaluator's decision on the whole manuscript.
type Verdict string

const (
	Publish Verdict = "PUBLISH"
	Revise  Verdict = "REVISE"
	// DoNotPublish is also returned when the evaluation names no verdict.
	DoNotPublish Verdict = "DO_NOT_PUBLISH"
)

func (v Verdict) String() string { return string(v) }

// Approved reports whether the manuscript may be published.
func (v Verdict) Approved() bool { return v == Publish }

// PublicationVerdict reads the final evaluation. PUBLISH wins unless the
// text also says DO NOT PUBLISH; otherwise REVISE; anything else is a
// rejection.
func PublicationVerdict(evaluation string) Verdict {
	upper := strings.ToUpper(evaluation)
	if strings.Contains(upper, verdictPublishMarker) && !strings.Contains(upper, verdictRejectMarker) {
		return Publish
	}
	if strings.Contains(upper, verdictReviseMarker) {
		return Revise
	}
	return DoNotPublish
}
