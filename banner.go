package main

import (
	"io"

	"ghostwriter/extract"
	"ghostwriter/workflow"

	"github.com/fatih/color"
)

var stageTitles = map[string]string{
	workflow.KeyResearch:        "Researching the topic",
	workflow.KeyDesign:          "Designing the book",
	workflow.KeyConclusion:      "Writing the conclusion",
	workflow.KeyFinalControl:    "Final quality control",
	workflow.KeyFinalEvaluation: "Final publishing evaluation",
}

// bannerObserver prints a coloured line for every stage and review.
func bannerObserver(w io.Writer) workflow.Observer {
	stage := color.New(color.FgCyan, color.Bold)
	chapter := color.New(color.FgBlue)
	done := color.New(color.FgGreen)
	return func(ev workflow.Event) {
		switch ev.Kind {
		case workflow.StageStarted:
			if title, ok := stageTitles[ev.Stage]; ok {
				stage.Fprintf(w, "==> %s\n", title)
				return
			}
			if ev.Chapter > 0 && ev.Stage == workflow.DraftKey(ev.Chapter, ev.Cycle) {
				chapter.Fprintf(w, "--> Chapter %d/%d, draft %d\n", ev.Chapter, ev.TotalChapters, ev.Cycle)
			}
		case workflow.ReviewDecided:
			decisionColor(ev.Decision).Fprintf(w, "    review: %s\n", ev.Decision)
		case workflow.ChapterAccepted:
			done.Fprintf(w, "    chapter %d accepted (%s after %d cycles)\n", ev.Chapter, ev.Outcome, ev.Cycle)
		}
	}
}

func decisionColor(d extract.Decision) *color.Color {
	switch d {
	case extract.Approved:
		return color.New(color.FgGreen)
	case extract.MinorRevisions:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func verdictColor(v extract.Verdict) *color.Color {
	switch v {
	case extract.Publish:
		return color.New(color.FgGreen, color.Bold)
	case extract.Revise:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
