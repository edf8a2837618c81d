package extract

import "strings"

// RevisionNotes returns the feedback lines found between a section marker
// (SPECIFIC ISSUES, RECOMMENDATIONS, ...) and the closing OVERALL /
// DECISION / SUMMARY line. Blank lines and "=" separators are dropped. When
// nothing is collected the whole review is returned unchanged.
func RevisionNotes(review string) string {
	var notes []string
	collecting := false

	for _, line := range strings.Split(review, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		if containsAny(upper, notesStartMarkers) {
			collecting = true
			continue
		}
		if !collecting {
			continue
		}
		if hasAnyPrefix(upper, notesStopPrefixes) {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "=") {
			continue
		}
		notes = append(notes, trimmed)
	}

	if len(notes) == 0 {
		return review
	}
	return strings.Join(notes, "\n")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
