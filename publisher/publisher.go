// Package publisher writes a compiled book to disk.
package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"
)

const defaultBaseName = "book"

// Options controls where and how documents are written.
type Options struct {
	OutputDir string
	// Timestamp appends _YYYYMMDD_HHMMSS to file names.
	Timestamp bool
	// HTML also writes an .html rendition next to the Markdown file.
	HTML bool
}

// Output lists the files written for one document.
type Output struct {
	MarkdownPath string
	HTMLPath     string
	Words        int
}

// Publisher writes compiled documents to the output directory.
type Publisher struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Publisher. A nil logger discards logs.
func New(opts Options, logger *zap.Logger) *Publisher {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{opts: opts, logger: logger, now: time.Now}
}

// Filename derives the document file name from topic: lowercase letters and
// digits are kept, spaces become underscores, everything else is dropped.
// A zero at omits the timestamp suffix.
func Filename(topic string, at time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = defaultBaseName
	}
	if !at.IsZero() {
		name += "_" + at.Format("20060102_150405")
	}
	return name + ".md"
}

// Write stores markdown under a name derived from topic and returns the
// paths written.
func (p *Publisher) Write(topic, markdown string) (Output, error) {
	if strings.TrimSpace(markdown) == "" {
		return Output{}, errors.New("document is empty")
	}
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("publisher: ensure output dir: %w", err)
	}

	var at time.Time
	if p.opts.Timestamp {
		at = p.now()
	}
	out := Output{
		MarkdownPath: filepath.Join(p.opts.OutputDir, Filename(topic, at)),
		Words:        WordCount(markdown),
	}
	if err := os.WriteFile(out.MarkdownPath, []byte(markdown), 0o644); err != nil {
		return Output{}, fmt.Errorf("publisher: write document: %w", err)
	}
	p.logger.Info("document written", zap.String("path", out.MarkdownPath), zap.Int("words", out.Words))

	if p.opts.HTML {
		html, err := mdToHTML(markdown)
		if err != nil {
			return Output{}, err
		}
		out.HTMLPath = strings.TrimSuffix(out.MarkdownPath, ".md") + ".html"
		page := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body>\n</html>\n",
			htmlEscape(topic), html)
		if err := os.WriteFile(out.HTMLPath, []byte(page), 0o644); err != nil {
			return Output{}, fmt.Errorf("publisher: write html: %w", err)
		}
		p.logger.Info("html rendition written", zap.String("path", out.HTMLPath))
	}
	return out, nil
}

// CheckWritable verifies that the output directory can be created and
// written to.
func CheckWritable(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".ghostwriter-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WordCount counts the words of the rendered text of md, ignoring Markdown
// syntax such as heading markers, emphasis and link targets.
func WordCount(md string) int {
	source := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			sb.WriteByte(' ')
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})

	return len(strings.FieldsFunc(sb.String(), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'' && r != '-')
	}))
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
