package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM answers without calling a model, for dry runs of the whole
// workflow. Answers are canned per task and always approve chapters.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	switch prompt.Task {
	case TaskResearch:
		sb.WriteString("# Research brief\n\n")
		sb.WriteString("## Audience\n\nGeneral readers.\n\n")
		sb.WriteString("## Themes\n\nFriendship, curiosity, courage.\n")
	case TaskDesign:
		sb.WriteString("# Book design\n\n")
		sb.WriteString("Chapter 1: The Meeting\nTwo unlikely friends meet.\n\n")
		sb.WriteString("Chapter 2: The Trouble\nSomething goes wrong.\n\n")
		sb.WriteString("Chapter 3: The Way Home\nEverything is set right.\n\n")
		sb.WriteString("This book will have 3 chapters.\n")
	case TaskWriteChapter:
		sb.WriteString("## Draft chapter\n\n")
		sb.WriteString("Once upon a time the story went on, one careful sentence after another.\n")
	case TaskReviewChapter, TaskFinalControl:
		sb.WriteString("SPECIFIC ISSUES:\n- None of note\n\n")
		sb.WriteString("RECOMMENDATIONS:\n- Keep the tone consistent\n\n")
		sb.WriteString("OVERALL: Solid work.\n\n")
		sb.WriteString("DECISION: APPROVED\n")
	case TaskConclusion:
		sb.WriteString("## Conclusion\n\nAnd so the friends went home.\n")
	case TaskFinalEvaluation:
		sb.WriteString("# Evaluation\n\nVerdict: PUBLISH\n")
	default:
		sb.WriteString(fmt.Sprintf("Mock answer for:\n\n```\n%s\n```\n", prompt.User))
	}
	return sb.String(), nil
}
