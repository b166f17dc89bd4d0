package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/jobtimer/internal/worktimer"
)

type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		json.Unmarshal(raw, &body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{method: r.Method, path: r.URL.EscapedPath(), header: r.Header.Clone(), body: body})
		mu.Unlock()
		w.WriteHeader(status)
		if status >= 300 {
			io.WriteString(w, "work item closed\n")
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func scenarioRecord() worktimer.TimeLogRecord {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return worktimer.TimeLogRecord{
		WorkItemID:      "jc1",
		LoggerID:        "u1",
		StartTime:       start,
		EndTime:         start.Add(90 * time.Second),
		DurationMinutes: 2,
		Notes:           "done",
		ParentContextID: "proj1",
		WorkItemLabel:   "Task X",
	}
}

func TestClientSubmitWireShape(t *testing.T) {
	srv, requests := newCaptureServer(t, http.StatusCreated)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Token: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Submit(context.Background(), scenarioRecord()); err != nil {
		t.Fatal(err)
	}

	reqs := requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	r := reqs[0]
	if r.method != http.MethodPost {
		t.Fatalf("method = %s", r.method)
	}
	if r.path != "/api/projects/proj1/work-items/jc1/time-logs" {
		t.Fatalf("path = %s", r.path)
	}
	if got := r.header.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := r.header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q", got)
	}
	if _, err := uuid.Parse(r.header.Get("Idempotency-Key")); err != nil {
		t.Fatalf("Idempotency-Key %q is not a UUID: %v", r.header.Get("Idempotency-Key"), err)
	}

	want := map[string]any{
		"work_item_id":     "jc1",
		"logger_id":        "u1",
		"start_time":       "2026-03-02T10:00:00Z",
		"end_time":         "2026-03-02T10:01:30Z",
		"duration_minutes": float64(2),
		"notes":            "done",
		"manual_entry":     false,
	}
	for k, v := range want {
		if r.body[k] != v {
			t.Errorf("body[%q] = %#v, want %#v", k, r.body[k], v)
		}
	}
	for _, hidden := range []string{"ParentContextID", "WorkItemLabel", "parentContextId"} {
		if _, ok := r.body[hidden]; ok {
			t.Errorf("body should not carry %q", hidden)
		}
	}
}

func TestClientFreshIdempotencyKeys(t *testing.T) {
	srv, requests := newCaptureServer(t, http.StatusOK)
	c, _ := NewClient(Config{BaseURL: srv.URL})

	c.Submit(context.Background(), scenarioRecord())
	c.Submit(context.Background(), scenarioRecord())

	reqs := requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].header.Get("Idempotency-Key") == reqs[1].header.Get("Idempotency-Key") {
		t.Fatal("each submission should carry its own key")
	}
	if reqs[0].header.Get("Authorization") != "" {
		t.Fatal("no token configured, no Authorization header expected")
	}
}

func TestClientEscapesPath(t *testing.T) {
	if got := Path("a/b", "c d"); got != "/api/projects/a%2Fb/work-items/c%20d/time-logs" {
		t.Fatalf("Path = %s", got)
	}
}

func TestClientStatusError(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusConflict)
	c, _ := NewClient(Config{BaseURL: srv.URL})

	err := c.Submit(context.Background(), scenarioRecord())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusConflict || statusErr.Body != "work item closed" {
		t.Fatalf("unexpected error: %+v", statusErr)
	}
}

func TestClientTransportError(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK)
	c, _ := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	srv.Close()

	if err := c.Submit(context.Background(), scenarioRecord()); err == nil {
		t.Fatal("expected error against a closed server")
	}
}

func TestClientRequiresParentContext(t *testing.T) {
	c, _ := NewClient(Config{BaseURL: "http://localhost"})
	record := scenarioRecord()
	record.ParentContextID = ""
	if err := c.Submit(context.Background(), record); err == nil {
		t.Fatal("expected error for record without parent context")
	}
}

func TestNewClientValidation(t *testing.T) {
	for _, base := range []string{"", "   ", "ftp://example.com", "not a url", "http://"} {
		if _, err := NewClient(Config{BaseURL: base}); err == nil {
			t.Errorf("NewClient(%q) should fail", base)
		}
	}
}
