package generator

import (
	"regexp"
	"strings"
)

// fencedRe matches an answer wrapped entirely in one Markdown code fence.
var fencedRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// PostProcess trims the model answer and unwraps a whole-answer code fence.
// Empty answers are an error.
func PostProcess(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if m := fencedRe.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}
