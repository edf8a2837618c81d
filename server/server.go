// Package server exposes book runs over HTTP. A run is started with a POST
// and polled until it finishes; the compiled document can then be fetched.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"ghostwriter/publisher"
	"ghostwriter/workflow"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunActive is returned when a run is requested while another is active.
var ErrRunActive = errors.New("another book run is in progress")

// Run statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Defaults fill the fields a request leaves empty.
type Defaults struct {
	WordCount         int
	MaxRevisionCycles int
}

type Server struct {
	ctx       context.Context
	tasks     workflow.TaskRunner
	publisher *publisher.Publisher
	defaults  Defaults
	logger    *zap.Logger
	validate  *validator.Validate
	store     *runStore
	wg        sync.WaitGroup
}

// runView is the JSON form of a run.
type runView struct {
	ID            string     `json:"run_id"`
	Status        string     `json:"status"`
	Topic         string     `json:"topic"`
	Stage         string     `json:"stage,omitempty"`
	ChaptersDone  int        `json:"chapters_done"`
	ChaptersTotal int        `json:"chapters_total"`
	OutputPath    string     `json:"output_path,omitempty"`
	HTMLPath      string     `json:"html_path,omitempty"`
	Words         int        `json:"words,omitempty"`
	Verdict       string     `json:"verdict,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

type runState struct {
	view     runView
	document string
}

type runStore struct {
	mu     sync.Mutex
	runs   map[string]*runState
	active string
}

func newStore() *runStore {
	return &runStore{runs: make(map[string]*runState)}
}

// start registers a run unless one is already active.
func (s *runStore) start(rs *runState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != "" {
		return ErrRunActive
	}
	s.runs[rs.view.ID] = rs
	s.active = rs.view.ID
	return nil
}

func (s *runStore) update(id string, fn func(*runState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.runs[id]
	if !ok {
		return
	}
	fn(rs)
	if rs.view.Status == StatusSucceeded || rs.view.Status == StatusFailed {
		if s.active == id {
			s.active = ""
		}
	}
}

func (s *runStore) get(id string) (runView, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.runs[id]
	if !ok {
		return runView{}, "", false
	}
	view := rs.view
	view.Warnings = append([]string(nil), rs.view.Warnings...)
	return view, rs.document, true
}

// New creates a Server. Runs execute under ctx, so cancelling it aborts the
// active run.
func New(ctx context.Context, tasks workflow.TaskRunner, pub *publisher.Publisher, defaults Defaults, logger *zap.Logger) (*Server, error) {
	if tasks == nil {
		return nil, errors.New("task runner required")
	}
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ctx:       ctx,
		tasks:     tasks,
		publisher: pub,
		defaults:  defaults,
		logger:    logger,
		validate:  validator.New(),
		store:     newStore(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books", s.handleBookCreate)
	mux.HandleFunc("GET /api/books/{id}", s.handleBookGet)
	mux.HandleFunc("GET /api/books/{id}/document", s.handleBookDocument)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logMiddleware(mux)
}

// Wait blocks until every started run has finished.
func (s *Server) Wait() { s.wg.Wait() }

// --- Handlers ---

type bookCreateReq struct {
	Topic             string `json:"topic" validate:"required,max=300"`
	WordCount         int    `json:"word_count" validate:"gte=0"`
	MaxRevisionCycles int    `json:"max_revision_cycles" validate:"gte=0,lte=10"`
	Simple            bool   `json:"simple"`
}

func (s *Server) handleBookCreate(w http.ResponseWriter, r *http.Request) {
	var req bookCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := workflow.Options{
		Topic:             req.Topic,
		WordCount:         req.WordCount,
		MaxRevisionCycles: req.MaxRevisionCycles,
		SkipReview:        req.Simple,
	}
	if opts.WordCount == 0 {
		opts.WordCount = s.defaults.WordCount
	}
	if opts.MaxRevisionCycles == 0 {
		opts.MaxRevisionCycles = s.defaults.MaxRevisionCycles
	}

	rs := &runState{view: runView{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Topic:     req.Topic,
		CreatedAt: time.Now(),
	}}
	if err := s.store.start(rs); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(rs.view.ID, opts)
	}()

	view, _, _ := s.store.get(rs.view.ID)
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) handleBookGet(w http.ResponseWriter, r *http.Request) {
	view, _, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("run not found"))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBookDocument(w http.ResponseWriter, r *http.Request) {
	view, doc, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("run not found"))
		return
	}
	if view.Status != StatusSucceeded {
		writeError(w, http.StatusConflict, errors.New("run has not succeeded"))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

// execute runs the workflow for one run and records its progress.
func (s *Server) execute(id string, opts workflow.Options) {
	log := s.logger.With(zap.String("run_id", id))
	observer := func(ev workflow.Event) {
		s.store.update(id, func(rs *runState) {
			rs.view.Status = StatusRunning
			rs.view.Stage = ev.Stage
			if ev.TotalChapters > 0 {
				rs.view.ChaptersTotal = ev.TotalChapters
			}
			if ev.Kind == workflow.ChapterAccepted {
				rs.view.ChaptersDone = ev.Chapter
			}
		})
	}

	fail := func(err error) {
		log.Error("book run failed", zap.Error(err))
		now := time.Now()
		s.store.update(id, func(rs *runState) {
			rs.view.Status = StatusFailed
			rs.view.Error = err.Error()
			rs.view.FinishedAt = &now
		})
	}

	orch, err := workflow.New(s.tasks, log, observer)
	if err != nil {
		fail(err)
		return
	}
	res, err := orch.Run(s.ctx, opts)
	if err != nil {
		fail(err)
		return
	}
	out, err := s.publisher.Write(res.Topic, res.Document)
	if err != nil {
		fail(err)
		return
	}

	now := time.Now()
	s.store.update(id, func(rs *runState) {
		rs.view.Status = StatusSucceeded
		rs.view.Stage = ""
		rs.view.OutputPath = out.MarkdownPath
		rs.view.HTMLPath = out.HTMLPath
		rs.view.Words = publisher.WordCount(res.Manuscript())
		rs.view.Verdict = res.Verdict.String()
		rs.view.Warnings = res.Warnings
		rs.view.FinishedAt = &now
		rs.document = res.Document
	})
	log.Info("book run finished", zap.String("output", out.MarkdownPath))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
