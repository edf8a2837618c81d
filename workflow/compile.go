package workflow

import (
	"fmt"
	"strings"
)

// Compile assembles the stage outputs of a finished run and a revision
// history into a single Markdown document.
func Compile(res *Result) string {
	st := res.State
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", res.Topic))
	sb.WriteString(fmt.Sprintf("_Generated on %s: %d chapters._\n\n",
		res.FinishedAt.Format("2006-01-02 15:04:05"), res.ChapterCount))

	section := func(title, key string) {
		text, ok := st.Get(key)
		if !ok {
			return
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", title, strings.TrimSpace(text)))
	}

	section("Research", KeyResearch)
	section("Book Design", KeyDesign)
	for n := 1; n <= res.ChapterCount; n++ {
		section(fmt.Sprintf("Chapter %d", n), ChapterKey(n))
	}
	section("Conclusion", KeyConclusion)
	section("Final Quality Control", KeyFinalControl)
	section("Final Evaluation", KeyFinalEvaluation)
	if res.Verdict != "" {
		sb.WriteString(fmt.Sprintf("**Publication verdict:** %s\n\n", res.Verdict))
	}

	sb.WriteString("## Revision History\n\n")
	sb.WriteString(RevisionHistory(res.Chapters))
	sb.WriteString(ReviewLog(res.Chapters))
	return sb.String()
}

// RevisionHistory renders every chapter's review decisions and outcome as a
// Markdown table.
func RevisionHistory(chapters []ChapterResult) string {
	if len(chapters) == 0 {
		return "No chapters were written.\n"
	}
	var sb strings.Builder
	sb.WriteString("| Chapter | Cycles | Decisions | Outcome |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, ch := range chapters {
		decisions := make([]string, 0, len(ch.Records))
		for _, r := range ch.Records {
			decisions = append(decisions, fmt.Sprintf("%d: %s", r.Cycle, r.Decision))
		}
		joined := strings.Join(decisions, ", ")
		if joined == "" {
			joined = "-"
		}
		sb.WriteString(fmt.Sprintf("| %d | %d | %s | %s |\n", ch.Number, ch.Cycles, joined, ch.Outcome))
	}
	return sb.String()
}

// ReviewLog renders the controller's review of every chapter cycle, in
// order. Chapters that were never reviewed contribute nothing.
func ReviewLog(chapters []ChapterResult) string {
	var sb strings.Builder
	for _, ch := range chapters {
		for _, r := range ch.Records {
			sb.WriteString(fmt.Sprintf("\n### Chapter %d, review %d (%s)\n\n%s\n",
				ch.Number, r.Cycle, r.Decision, strings.TrimSpace(r.Review)))
		}
	}
	return sb.String()
}
