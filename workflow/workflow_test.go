package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ghostwriter/extract"
	"ghostwriter/generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	task string
	in   generator.TaskInput
	docs []generator.ContextDoc
}

// fakeRunner answers tasks through a script and records every call.
type fakeRunner struct {
	calls []call
	// review returns the controller's answer for a chapter cycle.
	review func(chapter, cycle int) string
	design string
	// evaluation replaces the publishing evaluator's answer when set.
	evaluation string
	fail       func(task string, in generator.TaskInput) error
}

func (f *fakeRunner) Run(_ context.Context, task string, in generator.TaskInput, docs ...generator.ContextDoc) (string, error) {
	f.calls = append(f.calls, call{task: task, in: in, docs: docs})
	if f.fail != nil {
		if err := f.fail(task, in); err != nil {
			return "", err
		}
	}
	switch task {
	case generator.TaskDesign:
		if f.design != "" {
			return f.design, nil
		}
		return "Chapter 1: Start\nChapter 2: End", nil
	case generator.TaskWriteChapter:
		return fmt.Sprintf("draft ch%d c%d", in.ChapterNumber, in.Cycle), nil
	case generator.TaskFinalEvaluation:
		if f.evaluation != "" {
			return f.evaluation, nil
		}
		return task + " output", nil
	case generator.TaskReviewChapter:
		if f.review != nil {
			return f.review(in.ChapterNumber, in.Cycle), nil
		}
		return "DECISION: APPROVED", nil
	default:
		return task + " output", nil
	}
}

func (f *fakeRunner) count(task string) int {
	n := 0
	for _, c := range f.calls {
		if c.task == task {
			n++
		}
	}
	return n
}

func (f *fakeRunner) callsFor(task string) []call {
	var out []call
	for _, c := range f.calls {
		if c.task == task {
			out = append(out, c)
		}
	}
	return out
}

func always(review string) func(int, int) string {
	return func(int, int) string { return review }
}

func newTestOrchestrator(t *testing.T, r TaskRunner, obs ...Observer) *Orchestrator {
	t.Helper()
	o, err := New(r, nil, obs...)
	require.NoError(t, err)
	o.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return o
}

func runChapter(t *testing.T, r *fakeRunner, maxCycles int) ChapterResult {
	t.Helper()
	o := newTestOrchestrator(t, r)
	res, err := o.reviseChapter(context.Background(), NewState(), Options{Topic: "bees", MaxRevisionCycles: maxCycles}, 1, 1, nil)
	require.NoError(t, err)
	return res
}

func TestChapterLoopApprovedFirstCycle(t *testing.T) {
	r := &fakeRunner{review: always("Lovely.\nDECISION: APPROVED")}
	res := runChapter(t, r, 3)

	assert.Equal(t, 1, r.count(generator.TaskWriteChapter))
	assert.Equal(t, 1, r.count(generator.TaskReviewChapter))
	assert.Equal(t, OutcomeApproved, res.Outcome)
	assert.Equal(t, "draft ch1 c1", res.Content)
	require.Len(t, res.Records, 1)
	assert.Equal(t, extract.Approved, res.Records[0].Decision)
}

func TestChapterLoopAlwaysRejectStopsAtBudget(t *testing.T) {
	r := &fakeRunner{review: always("DECISION: REJECT")}
	res := runChapter(t, r, 3)

	assert.Equal(t, 3, r.count(generator.TaskWriteChapter))
	assert.Equal(t, 3, r.count(generator.TaskReviewChapter))
	assert.Equal(t, 3, res.Cycles)
	assert.Equal(t, OutcomeAcceptedBudget, res.Outcome)
	assert.Equal(t, "draft ch1 c3", res.Content)
}

func TestChapterLoopMajorRevisionsExhaust(t *testing.T) {
	r := &fakeRunner{review: always("DECISION: MAJOR_REVISIONS")}
	res := runChapter(t, r, 3)

	assert.Equal(t, 3, r.count(generator.TaskWriteChapter))
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, "draft ch1 c3", res.Content)
	assert.Len(t, res.Records, 3)
}

func TestChapterLoopMinorOnSecondCycleAccepts(t *testing.T) {
	r := &fakeRunner{review: always("DECISION: MINOR_REVISIONS")}
	res := runChapter(t, r, 3)

	assert.Equal(t, 2, r.count(generator.TaskWriteChapter))
	assert.Equal(t, OutcomeAcceptedMinor, res.Outcome)
	assert.Equal(t, "draft ch1 c2", res.Content)
}

func TestChapterLoopUnrecognisedReviewCountsAsMinor(t *testing.T) {
	r := &fakeRunner{review: always("Some thoughts, no verdict.")}
	res := runChapter(t, r, 3)

	assert.Equal(t, OutcomeAcceptedMinor, res.Outcome)
	assert.Equal(t, 2, res.Cycles)
}

func TestChapterLoopRejectBeforeBudgetRevises(t *testing.T) {
	r := &fakeRunner{review: func(_, cycle int) string {
		if cycle == 1 {
			return "DECISION: REJECT"
		}
		return "DECISION: APPROVED"
	}}
	res := runChapter(t, r, 3)

	assert.Equal(t, 2, res.Cycles)
	assert.Equal(t, OutcomeApproved, res.Outcome)
}

func TestChapterLoopSingleCycleBudget(t *testing.T) {
	r := &fakeRunner{review: always("DECISION: MAJOR_REVISIONS")}
	res := runChapter(t, r, 1)

	assert.Equal(t, 1, r.count(generator.TaskWriteChapter))
	assert.Equal(t, OutcomeExhausted, res.Outcome)
}

func TestChapterLoopInjectsRevisionNotes(t *testing.T) {
	r := &fakeRunner{review: func(_, cycle int) string {
		if cycle == 1 {
			return "Too dark.\nRECOMMENDATIONS:\n- Lighten the tone\n- Name the bee\nOVERALL: needs work\nDECISION: MAJOR_REVISIONS"
		}
		return "DECISION: APPROVED"
	}}
	runChapter(t, r, 3)

	writes := r.callsFor(generator.TaskWriteChapter)
	require.Len(t, writes, 2)
	assert.Empty(t, writes[0].in.RevisionNotes)
	assert.Empty(t, writes[0].in.PreviousDraft)
	assert.Equal(t, "- Lighten the tone\n- Name the bee", writes[1].in.RevisionNotes)
	assert.Equal(t, "draft ch1 c1", writes[1].in.PreviousDraft)
	assert.Equal(t, 2, writes[1].in.Cycle)

	reviews := r.callsFor(generator.TaskReviewChapter)
	assert.Equal(t, "draft ch1 c1", reviews[0].in.Draft)
	assert.Equal(t, "draft ch1 c2", reviews[1].in.Draft)
	assert.Empty(t, reviews[1].in.RevisionNotes)
}

func TestChapterLoopWithoutSectionsSendsWholeReview(t *testing.T) {
	review := "The middle sags.\nDECISION: MAJOR_REVISIONS"
	r := &fakeRunner{review: func(_, cycle int) string {
		if cycle == 1 {
			return review
		}
		return "APPROVED"
	}}
	runChapter(t, r, 3)

	writes := r.callsFor(generator.TaskWriteChapter)
	require.Len(t, writes, 2)
	assert.Equal(t, review, writes[1].in.RevisionNotes)
}

func TestRunFullWorkflow(t *testing.T) {
	r := &fakeRunner{review: func(chapter, cycle int) string {
		if chapter == 2 && cycle == 1 {
			return "RECOMMENDATIONS:\n- more bees\nDECISION: MAJOR_REVISIONS"
		}
		return "DECISION: APPROVED"
	}}
	var events []Event
	o := newTestOrchestrator(t, r, func(ev Event) { events = append(events, ev) })

	res, err := o.Run(context.Background(), Options{Topic: "  A bear and a bee ", WordCount: 2000})
	require.NoError(t, err)

	assert.Equal(t, "A bear and a bee", res.Topic)
	assert.Equal(t, 2, res.ChapterCount)
	assert.True(t, res.CountResolved)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, []string{
		"research", "design",
		"chapter_1_draft_1", "chapter_1_review_1", "chapter_1",
		"chapter_2_draft_1", "chapter_2_review_1", "chapter_2_draft_2", "chapter_2_review_2", "chapter_2",
		"conclusion", "final_control", "final_evaluation",
	}, res.State.Keys())

	ch2, _ := res.State.Get(ChapterKey(2))
	assert.Equal(t, "draft ch2 c2", ch2)
	assert.Equal(t, "draft ch1 c1\n\ndraft ch2 c2\n\nconclusion output", res.Manuscript())

	// chapter 2 sees chapter 1 as context
	writes := r.callsFor(generator.TaskWriteChapter)
	require.Len(t, writes, 3)
	assert.Len(t, writes[0].docs, 2)
	require.Len(t, writes[1].docs, 3)
	assert.Equal(t, "draft ch1 c1", writes[1].docs[2].Body)

	eval := r.callsFor(generator.TaskFinalEvaluation)
	require.Len(t, eval, 1)
	assert.Equal(t, "final_control output", eval[0].docs[1].Body)

	doc := res.Document
	for _, want := range []string{
		"# A bear and a bee",
		"## Research\n\nresearch output",
		"## Chapter 1\n\ndraft ch1 c1",
		"## Chapter 2\n\ndraft ch2 c2",
		"## Conclusion",
		"## Final Quality Control",
		"## Final Evaluation",
		"## Revision History",
		"| 2 | 2 | 1: MAJOR_REVISIONS, 2: APPROVED | approved |",
		"### Chapter 2, review 1 (MAJOR_REVISIONS)\n\nRECOMMENDATIONS:\n- more bees\nDECISION: MAJOR_REVISIONS",
		"### Chapter 2, review 2 (APPROVED)\n\nDECISION: APPROVED",
		"**Publication verdict:** DO_NOT_PUBLISH",
	} {
		assert.Contains(t, doc, want)
	}
	assert.NotContains(t, doc, "draft ch2 c1")
	assert.Equal(t, extract.DoNotPublish, res.Verdict)
	assert.Less(t, strings.Index(doc, "## Revision History"), strings.Index(doc, "### Chapter 1, review 1"))
	assert.Less(t, strings.Index(doc, "## Chapter 1"), strings.Index(doc, "## Chapter 2"))

	var decided, accepted int
	for _, ev := range events {
		switch ev.Kind {
		case ReviewDecided:
			decided++
		case ChapterAccepted:
			accepted++
		}
	}
	assert.Equal(t, 3, decided)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, Event{Kind: StageStarted, Stage: "research"}, events[0])
}

func TestRunUnresolvedChapterCountUsesDefault(t *testing.T) {
	r := &fakeRunner{design: "A lovely book about friendship."}
	o := newTestOrchestrator(t, r)

	res, err := o.Run(context.Background(), Options{Topic: "friends"})
	require.NoError(t, err)
	assert.Equal(t, extract.DefaultChapterCount, res.ChapterCount)
	assert.False(t, res.CountResolved)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unresolved")
	assert.Len(t, res.Chapters, extract.DefaultChapterCount)
}

func TestRunStageFailureAborts(t *testing.T) {
	boom := errors.New("llm unreachable")
	r := &fakeRunner{fail: func(task string, in generator.TaskInput) error {
		if task == generator.TaskReviewChapter && in.ChapterNumber == 2 {
			return boom
		}
		return nil
	}}
	o := newTestOrchestrator(t, r)

	res, err := o.Run(context.Background(), Options{Topic: "bees"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `stage "chapter_2_review_1"`)
	assert.Zero(t, r.count(generator.TaskConclusion))
}

func TestRunSkipReview(t *testing.T) {
	r := &fakeRunner{review: always("DECISION: REJECT")}
	o := newTestOrchestrator(t, r)

	res, err := o.Run(context.Background(), Options{Topic: "bees", SkipReview: true})
	require.NoError(t, err)
	assert.Zero(t, r.count(generator.TaskReviewChapter))
	assert.Equal(t, 2, r.count(generator.TaskWriteChapter))
	for _, ch := range res.Chapters {
		assert.Equal(t, OutcomeUnreviewed, ch.Outcome)
	}
	assert.Contains(t, res.Document, "| 1 | 1 | - | unreviewed |")
}

func TestRunValidatesOptions(t *testing.T) {
	o := newTestOrchestrator(t, &fakeRunner{})

	_, err := o.Run(context.Background(), Options{Topic: "   "})
	assert.ErrorContains(t, err, "topic")

	_, err = o.Run(context.Background(), Options{Topic: "bees", MaxRevisionCycles: -1})
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestStateIsAppendOnly(t *testing.T) {
	st := NewState()
	require.NoError(t, st.Put("research", "a"))
	require.NoError(t, st.Put("design", "b"))

	err := st.Put("research", "c")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	v, ok := st.Get("research")
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, []string{"research", "design"}, st.Keys())
	assert.Equal(t, 2, st.Len())

	_, ok = st.Get("missing")
	assert.False(t, ok)
}

func TestRunReadsPublicationVerdict(t *testing.T) {
	tests := []struct {
		evaluation string
		want       extract.Verdict
	}{
		{"Ready for print.\nVERDICT: PUBLISH", extract.Publish},
		{"VERDICT: DO NOT PUBLISH", extract.DoNotPublish},
		{"VERDICT: REVISE the middle chapters", extract.Revise},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			o := newTestOrchestrator(t, &fakeRunner{evaluation: tt.evaluation})
			res, err := o.Run(context.Background(), Options{Topic: "bees"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Verdict)
			assert.Contains(t, res.Document, "**Publication verdict:** "+tt.want.String())
		})
	}
}

func TestReviewLogSkipsUnreviewedChapters(t *testing.T) {
	assert.Empty(t, ReviewLog([]ChapterResult{{Number: 1, Cycles: 1, Outcome: OutcomeUnreviewed}}))
}

func TestRevisionHistoryEmpty(t *testing.T) {
	assert.Equal(t, "No chapters were written.\n", RevisionHistory(nil))
}
