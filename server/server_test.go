package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"ghostwriter/generator"
	"ghostwriter/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTasks approves every chapter of a two-chapter design. When gate is
// set, the research task blocks until it is closed.
type scriptedTasks struct {
	gate chan struct{}
	err  error
}

func (s *scriptedTasks) Run(_ context.Context, task string, in generator.TaskInput, _ ...generator.ContextDoc) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	switch task {
	case generator.TaskResearch:
		if s.gate != nil {
			<-s.gate
		}
		return "research", nil
	case generator.TaskDesign:
		return "Chapter 1: One\nChapter 2: Two", nil
	case generator.TaskWriteChapter:
		return fmt.Sprintf("Words of chapter %d.", in.ChapterNumber), nil
	case generator.TaskReviewChapter:
		return "DECISION: APPROVED", nil
	case generator.TaskFinalEvaluation:
		return "Verdict: PUBLISH", nil
	}
	return task, nil
}

func newTestServer(t *testing.T, tasks *scriptedTasks) (*Server, *httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	srv, err := New(context.Background(), tasks, publisher.New(publisher.Options{OutputDir: dir}, nil),
		Defaults{WordCount: 1000, MaxRevisionCycles: 3}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts, dir
}

func postBook(t *testing.T, ts *httptest.Server, body string) (*http.Response, runView) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/books", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var view runView
	if resp.StatusCode == http.StatusAccepted {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	}
	return resp, view
}

func getRun(t *testing.T, ts *httptest.Server, id string) (int, runView) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/books/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	var view runView
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	}
	return resp.StatusCode, view
}

func TestBookRunSucceeds(t *testing.T) {
	srv, ts, dir := newTestServer(t, &scriptedTasks{})

	resp, view := postBook(t, ts, `{"topic":"Bear and Bee"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Bear and Bee", view.Topic)

	srv.Wait()

	code, view := getRun(t, ts, view.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusSucceeded, view.Status)
	assert.Equal(t, 2, view.ChaptersTotal)
	assert.Equal(t, 2, view.ChaptersDone)
	assert.Equal(t, dir+"/bear_and_bee.md", view.OutputPath)
	assert.NotNil(t, view.FinishedAt)
	assert.Positive(t, view.Words)
	assert.Equal(t, "PUBLISH", view.Verdict)

	onDisk, err := os.ReadFile(view.OutputPath)
	require.NoError(t, err)

	docResp, err := http.Get(ts.URL + "/api/books/" + view.ID + "/document")
	require.NoError(t, err)
	defer docResp.Body.Close()
	body, err := io.ReadAll(docResp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, docResp.StatusCode)
	assert.Equal(t, string(onDisk), string(body))
	assert.Contains(t, string(body), "## Chapter 2\n\nWords of chapter 2.")
}

func TestBookRunFailureIsReported(t *testing.T) {
	srv, ts, _ := newTestServer(t, &scriptedTasks{err: errors.New("model offline")})

	_, view := postBook(t, ts, `{"topic":"Bees"}`)
	srv.Wait()

	_, view = getRun(t, ts, view.ID)
	assert.Equal(t, StatusFailed, view.Status)
	assert.Contains(t, view.Error, "model offline")

	resp, err := http.Get(ts.URL + "/api/books/" + view.ID + "/document")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// a failed run frees the slot
	resp, _ = postBook(t, ts, `{"topic":"Bees again"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	srv.Wait()
}

func TestOnlyOneActiveRun(t *testing.T) {
	gate := make(chan struct{})
	srv, ts, _ := newTestServer(t, &scriptedTasks{gate: gate})

	resp, first := postBook(t, ts, `{"topic":"First"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = postBook(t, ts, `{"topic":"Second"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(gate)
	srv.Wait()

	_, view := getRun(t, ts, first.ID)
	assert.Equal(t, StatusSucceeded, view.Status)
}

func TestBookCreateValidation(t *testing.T) {
	_, ts, _ := newTestServer(t, &scriptedTasks{})

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"topic":""}`,
		`{"topic":"   \t "}`,
		`{"topic":"ok","max_revision_cycles":50}`,
		`{"topic":"ok","word_count":-1}`,
	} {
		resp, _ := postBook(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestUnknownRun(t *testing.T) {
	_, ts, _ := newTestServer(t, &scriptedTasks{})
	code, _ := getRun(t, ts, "does-not-exist")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t, &scriptedTasks{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
