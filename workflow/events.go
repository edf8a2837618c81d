package workflow

import "ghostwriter/extract"

// EventKind identifies what an Event reports.
type EventKind string

const (
	StageStarted  EventKind = "stage_started"
	StageFinished EventKind = "stage_finished"
	ReviewDecided EventKind = "review_decided"
	// ChapterAccepted is emitted once per chapter with its Outcome.
	ChapterAccepted EventKind = "chapter_accepted"
)

// Event describes progress of a run. Chapter and Cycle are zero for stages
// outside the chapter loop.
type Event struct {
	Kind          EventKind
	Stage         string
	Chapter       int
	TotalChapters int
	Cycle         int
	Decision      extract.Decision
	Outcome       Outcome
}

// Observer receives run events synchronously on the run's goroutine.
type Observer func(Event)
