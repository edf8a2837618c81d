package workflow

import (
	"context"

	"ghostwriter/extract"
	"ghostwriter/generator"

	"go.uber.org/zap"
)

// DefaultMaxRevisionCycles bounds the draft/review passes per chapter.
const DefaultMaxRevisionCycles = 3

// Outcome is how a chapter left the revision loop.
type Outcome string

const (
	// OutcomeApproved: the controller approved the draft.
	OutcomeApproved Outcome = "approved"
	// OutcomeAcceptedMinor: only minor revisions were asked for again on a
	// second or later cycle, so the draft was accepted as is.
	OutcomeAcceptedMinor Outcome = "accepted_minor"
	// OutcomeAcceptedBudget: rejected on the last allowed cycle; the draft
	// was accepted because the budget ran out.
	OutcomeAcceptedBudget Outcome = "accepted_budget"
	// OutcomeExhausted: the cycles ran out without a terminal decision.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeUnreviewed: reviews were skipped.
	OutcomeUnreviewed Outcome = "unreviewed"
)

// RevisionRecord is one review pass of a chapter.
type RevisionRecord struct {
	Chapter  int
	Cycle    int
	Review   string
	Decision extract.Decision
}

// ChapterResult is the accepted text of a chapter and how it got there.
type ChapterResult struct {
	Number  int
	Content string
	Cycles  int
	Outcome Outcome
	Records []RevisionRecord
}

// reviseChapter alternates writer and controller until the chapter reaches
// a terminal decision or runs out of cycles. It never fails on review
// content; only agent errors abort it. The last draft produced is always
// the one accepted.
func (o *Orchestrator) reviseChapter(ctx context.Context, st *State, opts Options, n, total int, docs []generator.ContextDoc) (ChapterResult, error) {
	res := ChapterResult{Number: n}
	var draft, notes string

	for cycle := 1; cycle <= opts.MaxRevisionCycles; cycle++ {
		in := generator.TaskInput{
			Topic:         opts.Topic,
			WordCount:     opts.WordCount,
			ChapterNumber: n,
			TotalChapters: total,
			Cycle:         cycle,
		}
		writeIn := in
		if cycle > 1 {
			writeIn.RevisionNotes = notes
			writeIn.PreviousDraft = draft
		}
		d, err := o.stage(ctx, st, DraftKey(n, cycle), generator.TaskWriteChapter, writeIn, n, total, docs)
		if err != nil {
			return ChapterResult{}, err
		}
		draft = d
		res.Cycles = cycle

		if opts.SkipReview {
			res.Outcome = OutcomeUnreviewed
			break
		}

		reviewIn := in
		reviewIn.Draft = draft
		review, err := o.stage(ctx, st, ReviewKey(n, cycle), generator.TaskReviewChapter, reviewIn, n, total, docs)
		if err != nil {
			return ChapterResult{}, err
		}
		decision := extract.Classify(review)
		res.Records = append(res.Records, RevisionRecord{Chapter: n, Cycle: cycle, Review: review, Decision: decision})
		o.logger.Info("chapter reviewed",
			zap.Int("chapter", n), zap.Int("cycle", cycle), zap.String("decision", decision.String()))
		o.emit(Event{Kind: ReviewDecided, Stage: ReviewKey(n, cycle), Chapter: n, TotalChapters: total, Cycle: cycle, Decision: decision})

		if out, done := terminal(decision, cycle, opts.MaxRevisionCycles); done {
			res.Outcome = out
			break
		}
		notes = extract.RevisionNotes(review)
	}

	if res.Outcome == "" {
		res.Outcome = OutcomeExhausted
		o.logger.Warn("revision cycles exhausted, accepting last draft",
			zap.Int("chapter", n), zap.Int("cycles", res.Cycles))
	}
	if err := st.Put(ChapterKey(n), draft); err != nil {
		return ChapterResult{}, err
	}
	res.Content = draft
	o.emit(Event{Kind: ChapterAccepted, Stage: ChapterKey(n), Chapter: n, TotalChapters: total, Cycle: res.Cycles, Outcome: res.Outcome})
	return res, nil
}

// terminal reports whether decision on cycle ends the loop.
func terminal(decision extract.Decision, cycle, maxCycles int) (Outcome, bool) {
	switch {
	case decision == extract.Approved:
		return OutcomeApproved, true
	case decision == extract.MinorRevisions && cycle >= 2:
		return OutcomeAcceptedMinor, true
	case decision == extract.Reject && cycle >= maxCycles:
		return OutcomeAcceptedBudget, true
	}
	return "", false
}
