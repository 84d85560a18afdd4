package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leadharvest/internal/harvest"
	"leadharvest/internal/registry"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("task-%d", g.n), nil
}

type runCall struct {
	taskID string
	combos []harvest.Combination
}

type fakeRunner struct {
	calls chan runCall
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: make(chan runCall, 4)}
}

func (f *fakeRunner) Run(_ context.Context, taskID string, combos []harvest.Combination) {
	f.calls <- runCall{taskID: taskID, combos: combos}
}

func (f *fakeRunner) waitForCall(t *testing.T) runCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not invoked")
		return runCall{}
	}
}

func newTestServer(t *testing.T) (*Server, *registry.Registry, *fakeRunner) {
	t.Helper()
	reg := registry.New(&seqIDGen{}, fakeClock{now: time.Unix(1700000000, 0).UTC()}, zap.NewNop())
	runner := newFakeRunner()
	return NewServer(context.Background(), reg, runner, zap.NewNop()), reg, runner
}

func TestSubmitScrapeJobWithStrings(t *testing.T) {
	t.Parallel()

	srv, reg, runner := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/scrapJobs",
		strings.NewReader(`{"country": "United States", "job": "nurse"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Scraping task started", resp["message"])
	require.NotEmpty(t, resp["task_id"])

	call := runner.waitForCall(t)
	require.Equal(t, resp["task_id"], call.taskID)
	require.Equal(t, []harvest.Combination{{Country: "United States", Job: "nurse"}}, call.combos)

	task, ok := reg.Get(resp["task_id"])
	require.True(t, ok)
	require.Equal(t, harvest.TaskStatusQueued, task.Status)
	require.Equal(t, 1, task.TotalCombinations)
}

func TestSubmitScrapeJobWithLists(t *testing.T) {
	t.Parallel()

	srv, reg, runner := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/scrapJobs",
		strings.NewReader(`{"country": ["US", "CA"], "job": ["nurse", "engineer"]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	call := runner.waitForCall(t)
	require.Len(t, call.combos, 4)
	require.Equal(t, harvest.Combination{Country: "US", Job: "nurse"}, call.combos[0])
	require.Equal(t, harvest.Combination{Country: "CA", Job: "engineer"}, call.combos[3])

	task, _ := reg.Get(call.taskID)
	require.Equal(t, 4, task.TotalCombinations)
}

func TestSubmitScrapeJobValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"country": `},
		{"country wrong type", `{"country": 7, "job": "nurse"}`},
		{"missing job", `{"country": "US"}`},
		{"missing country", `{"job": "nurse"}`},
		{"empty lists", `{"country": [], "job": []}`},
		{"whitespace only", `{"country": ["  "], "job": ["nurse"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, reg, _ := newTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/scrapJobs", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Zero(t, reg.Len())
		})
	}
}

func TestGetScrapeStatus(t *testing.T) {
	t.Parallel()

	srv, reg, _ := newTestServer(t)
	taskID, err := reg.Create(2)
	require.NoError(t, err)

	running := harvest.TaskStatusRunning
	progress := "Processing 1/2: 'nurse' in 'US'"
	reg.Update(taskID, harvest.TaskUpdate{Status: &running, Progress: &progress})

	req := httptest.NewRequest(http.MethodGet, "/scrapStatus/"+taskID, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var task harvest.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	require.Equal(t, taskID, task.ID)
	require.Equal(t, harvest.TaskStatusRunning, task.Status)
	require.Equal(t, progress, task.Progress)
	require.Equal(t, 2, task.TotalCombinations)
	require.Empty(t, task.Error)
}

func TestGetScrapeStatusNotFound(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/scrapStatus/no-such-task", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "task not found", resp["error"])
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
