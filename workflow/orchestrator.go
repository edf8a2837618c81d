// Package workflow runs the publishing house: research, design, the
// per-chapter revision loop, conclusion, final control and final evaluation,
// and compiles every stage output into one document.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghostwriter/extract"
	"ghostwriter/generator"

	"go.uber.org/zap"
)

// TaskRunner invokes the agent responsible for a task and returns its
// answer. *generator.Crew implements it.
type TaskRunner interface {
	Run(ctx context.Context, task string, in generator.TaskInput, docs ...generator.ContextDoc) (string, error)
}

// Options configures one run.
type Options struct {
	Topic     string
	WordCount int
	// MaxRevisionCycles bounds the draft/review passes per chapter; zero
	// means DefaultMaxRevisionCycles.
	MaxRevisionCycles int
	// SkipReview drafts every chapter once and accepts it unreviewed.
	SkipReview bool
}

// Result is everything a finished run produced.
type Result struct {
	Topic         string
	Document      string
	State         *State
	Chapters      []ChapterResult
	ChapterCount  int
	CountResolved bool
	Warnings      []string
	// Verdict is read from the final evaluation.
	Verdict    extract.Verdict
	StartedAt  time.Time
	FinishedAt time.Time
}

// Manuscript returns the book body: every accepted chapter followed by the
// conclusion.
func (r *Result) Manuscript() string {
	return manuscript(r.State, r.ChapterCount, true)
}

// Orchestrator sequences the stages of a run. Runs are strictly sequential:
// each agent call completes before the next one starts.
type Orchestrator struct {
	runner    TaskRunner
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time
}

// New returns an Orchestrator driving runner. A nil logger discards logs.
func New(runner TaskRunner, logger *zap.Logger, observers ...Observer) (*Orchestrator, error) {
	if runner == nil {
		return nil, errors.New("task runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{runner: runner, logger: logger, observers: observers, now: time.Now}, nil
}

// Run executes the whole workflow for opts.Topic on a fresh State. The first
// failing stage aborts the run.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.Topic = strings.TrimSpace(opts.Topic)
	if opts.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if opts.MaxRevisionCycles == 0 {
		opts.MaxRevisionCycles = DefaultMaxRevisionCycles
	}
	if opts.MaxRevisionCycles < 0 {
		return nil, fmt.Errorf("max revision cycles must be positive, got %d", opts.MaxRevisionCycles)
	}

	st := NewState()
	res := &Result{Topic: opts.Topic, State: st, StartedAt: o.now()}
	base := generator.TaskInput{Topic: opts.Topic, WordCount: opts.WordCount}
	o.logger.Info("workflow started",
		zap.String("topic", opts.Topic), zap.Int("word_count", opts.WordCount),
		zap.Int("max_revision_cycles", opts.MaxRevisionCycles), zap.Bool("skip_review", opts.SkipReview))

	research, err := o.stage(ctx, st, KeyResearch, generator.TaskResearch, base, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	researchDoc := generator.ContextDoc{Title: "Research brief", Body: research}

	design, err := o.stage(ctx, st, KeyDesign, generator.TaskDesign, base, 0, 0, []generator.ContextDoc{researchDoc})
	if err != nil {
		return nil, err
	}
	designDoc := generator.ContextDoc{Title: "Book design", Body: design}

	total, ok := extract.ChapterCount(design)
	res.ChapterCount, res.CountResolved = total, ok
	if !ok {
		msg := fmt.Sprintf("chapter count unresolved, using default of %d", total)
		res.Warnings = append(res.Warnings, msg)
		o.logger.Warn(msg)
	}
	o.logger.Info("book designed", zap.Int("chapters", total))

	for n := 1; n <= total; n++ {
		docs := []generator.ContextDoc{researchDoc, designDoc}
		if prev, ok := st.Get(ChapterKey(n - 1)); ok {
			docs = append(docs, generator.ContextDoc{Title: fmt.Sprintf("Previous chapter (%d)", n-1), Body: prev})
		}
		ch, err := o.reviseChapter(ctx, st, opts, n, total, docs)
		if err != nil {
			return nil, err
		}
		res.Chapters = append(res.Chapters, ch)
	}

	in := base
	in.TotalChapters = total
	chaptersDoc := generator.ContextDoc{Title: "Chapters", Body: manuscript(st, total, false)}
	if _, err := o.stage(ctx, st, KeyConclusion, generator.TaskConclusion, in, 0, total,
		[]generator.ContextDoc{designDoc, chaptersDoc}); err != nil {
		return nil, err
	}

	manuscriptDoc := generator.ContextDoc{Title: "Manuscript", Body: manuscript(st, total, true)}
	control, err := o.stage(ctx, st, KeyFinalControl, generator.TaskFinalControl, in, 0, total,
		[]generator.ContextDoc{designDoc, manuscriptDoc})
	if err != nil {
		return nil, err
	}
	evaluation, err := o.stage(ctx, st, KeyFinalEvaluation, generator.TaskFinalEvaluation, in, 0, total,
		[]generator.ContextDoc{manuscriptDoc, {Title: "Final quality control report", Body: control}})
	if err != nil {
		return nil, err
	}
	res.Verdict = extract.PublicationVerdict(evaluation)
	o.logger.Info("publication verdict", zap.String("verdict", res.Verdict.String()))

	res.FinishedAt = o.now()
	res.Document = Compile(res)
	o.logger.Info("workflow finished",
		zap.String("topic", opts.Topic), zap.Int("chapters", total),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	return res, nil
}

// stage runs one agent task and records its output under key.
func (o *Orchestrator) stage(ctx context.Context, st *State, key, task string, in generator.TaskInput, chapter, total int, docs []generator.ContextDoc) (string, error) {
	o.emit(Event{Kind: StageStarted, Stage: key, Chapter: chapter, TotalChapters: total, Cycle: in.Cycle})
	o.logger.Debug("stage started", zap.String("stage", key), zap.String("task", task))

	out, err := o.runner.Run(ctx, task, in, docs...)
	if err != nil {
		o.logger.Error("stage failed", zap.String("stage", key), zap.Error(err))
		return "", fmt.Errorf("stage %q: %w", key, err)
	}
	if err := st.Put(key, out); err != nil {
		return "", err
	}

	o.emit(Event{Kind: StageFinished, Stage: key, Chapter: chapter, TotalChapters: total, Cycle: in.Cycle})
	o.logger.Info("stage finished", zap.String("stage", key), zap.Int("chars", len(out)))
	return out, nil
}

func (o *Orchestrator) emit(ev Event) {
	for _, obs := range o.observers {
		obs(ev)
	}
}

// manuscript joins the accepted chapters, and the conclusion if asked.
func manuscript(st *State, chapters int, withConclusion bool) string {
	if st == nil {
		return ""
	}
	var parts []string
	for n := 1; n <= chapters; n++ {
		if text, ok := st.Get(ChapterKey(n)); ok {
			parts = append(parts, text)
		}
	}
	if withConclusion {
		if text, ok := st.Get(KeyConclusion); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
