package generator

import "errors"

// Workflow task names. Each one is bound to a role in the registry and to a
// template in tasks.yaml.
const (
	TaskResearch        = "research"
	TaskDesign          = "design"
	TaskWriteChapter    = "write_chapter"
	TaskReviewChapter   = "review_chapter"
	TaskConclusion      = "conclusion"
	TaskFinalControl    = "final_control"
	TaskFinalEvaluation = "final_evaluation"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrEmptyOutput = errors.New("model returned empty output")
)

// TaskInput is the data a task template is rendered with.
type TaskInput struct {
	Topic         string
	WordCount     int
	ChapterNumber int
	TotalChapters int
	Cycle         int
	RevisionNotes string
	// Draft is the chapter text under review.
	Draft string
	// PreviousDraft is sent back to the writer as its own earlier answer
	// when a chapter is being revised.
	PreviousDraft string
}

// ContextDoc is an earlier stage output handed to an agent as reference.
type ContextDoc struct {
	Title string
	Body  string
}
