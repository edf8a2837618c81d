package workflow

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is returned when a stage output is written twice.
var ErrDuplicateKey = errors.New("stage output already recorded")

// Stage keys used in State.
const (
	KeyResearch        = "research"
	KeyDesign          = "design"
	KeyConclusion      = "conclusion"
	KeyFinalControl    = "final_control"
	KeyFinalEvaluation = "final_evaluation"
)

// ChapterKey is the key of the accepted text of chapter n.
func ChapterKey(n int) string { return fmt.Sprintf("chapter_%d", n) }

// DraftKey is the key of draft cycle of chapter n.
func DraftKey(n, cycle int) string { return fmt.Sprintf("chapter_%d_draft_%d", n, cycle) }

// ReviewKey is the key of the review of draft cycle of chapter n.
func ReviewKey(n, cycle int) string { return fmt.Sprintf("chapter_%d_review_%d", n, cycle) }

// State maps stage keys to the text produced for them during one run. It is
// append-only and remembers insertion order. A State belongs to a single
// run and is not safe for concurrent use.
type State struct {
	values map[string]string
	order  []string
}

// NewState returns an empty State.
func NewState() *State {
	return &State{values: make(map[string]string)}
}

// Put records the output of a stage. Keys cannot be overwritten.
func (s *State) Put(key, content string) error {
	if _, ok := s.values[key]; ok {
		return fmt.Errorf("%s: %w", key, ErrDuplicateKey)
	}
	s.values[key] = content
	s.order = append(s.order, key)
	return nil
}

// Get returns the output recorded for key.
func (s *State) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns every recorded key in insertion order.
func (s *State) Keys() []string {
	return append([]string(nil), s.order...)
}

// Len reports the number of recorded outputs.
func (s *State) Len() int { return len(s.order) }
