package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwriter/publisher"
	"ghostwriter/workflow"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// wordCountTolerance is how far the manuscript may drift from the target
// before a warning is printed.
const wordCountTolerance = 0.2

func newRunCmd(use, short string, skipReview bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBook(ctx, cmd, skipReview)
		},
	}
	f := cmd.Flags()
	f.StringP("topic", "t", "", "book topic (required)")
	f.Int("word-count", 0, "target manuscript length in words")
	f.Int("max-cycles", 0, "maximum draft/review cycles per chapter")
	f.Bool("html", false, "also write an HTML rendition")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runBook(ctx context.Context, cmd *cobra.Command, skipReview bool) error {
	out := cmd.OutOrStdout()
	a, err := setup(ctx, cmd, out)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	topic, _ := cmd.Flags().GetString("topic")
	color.New(color.FgCyan, color.Bold).Fprintf(out, "Publishing house: %q\n", topic)

	orch, err := workflow.New(a.crew, a.log, bannerObserver(out))
	if err != nil {
		return err
	}
	res, err := orch.Run(ctx, workflow.Options{
		Topic:             topic,
		WordCount:         a.cfg.WordCount,
		MaxRevisionCycles: a.cfg.MaxRevisionCycles,
		SkipReview:        skipReview,
	})
	if err != nil {
		if a.cfg.Debug {
			a.log.Error("book run failed", zap.Error(err), zap.Stack("stack"))
		} else {
			a.log.Error("book run failed", zap.Error(err))
		}
		return err
	}

	pub := publisher.New(publisher.Options{
		OutputDir: a.cfg.OutputDir,
		Timestamp: a.cfg.TimestampOutput,
		HTML:      a.cfg.HTMLOutput,
	}, a.log)
	written, err := pub.Write(res.Topic, res.Document)
	if err != nil {
		return err
	}

	warn := color.New(color.FgYellow)
	for _, w := range res.Warnings {
		warn.Fprintf(out, "warning: %s\n", w)
	}
	words := publisher.WordCount(res.Manuscript())
	if msg := wordCountDrift(words, a.cfg.WordCount); msg != "" {
		warn.Fprintln(out, "warning: "+msg)
		a.log.Warn("word count drift", zap.Int("words", words), zap.Int("target", a.cfg.WordCount))
	}

	verdictColor(res.Verdict).Fprintf(out, "Publication verdict: %s\n", res.Verdict)
	ok := color.New(color.FgGreen, color.Bold)
	ok.Fprintf(out, "Book written to %s\n", written.MarkdownPath)
	if written.HTMLPath != "" {
		ok.Fprintf(out, "HTML written to %s\n", written.HTMLPath)
	}
	fmt.Fprintf(out, "%d chapters, %d words, %s\n",
		res.ChapterCount, words, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	return nil
}

// wordCountDrift reports a manuscript that is off target by more than
// wordCountTolerance. It returns "" when the length is acceptable.
func wordCountDrift(words, target int) string {
	if target <= 0 {
		return ""
	}
	diff := float64(words-target) / float64(target)
	if diff < -wordCountTolerance || diff > wordCountTolerance {
		return fmt.Sprintf("manuscript has %d words, target was %d (%+.0f%%)", words, target, diff*100)
	}
	return ""
}
