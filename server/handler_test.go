package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/deckbrief/adapter"
	"github.com/pithecene-io/deckbrief/config"
	"github.com/pithecene-io/deckbrief/iox"
	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/runtime"
	"github.com/pithecene-io/deckbrief/sse"
	"github.com/pithecene-io/deckbrief/types"
)

type stubSummarizer struct {
	failAt int // zero-based slide index to fail on, -1 for never
}

func (s *stubSummarizer) Summarize(_ context.Context, text string, index int) (string, error) {
	if index == s.failAt {
		return "", errors.New("provider unavailable")
	}
	return fmt.Sprintf("summary of %q", text), nil
}

func newTestServer(t *testing.T, sum *stubSummarizer) *httptest.Server {
	return newNotifyingTestServer(t, sum, nil)
}

func newNotifyingTestServer(t *testing.T, sum *stubSummarizer, notifier adapter.Adapter) *httptest.Server {
	t.Helper()
	cfg := &config.Config{}
	collector := &metrics.Collector{}
	orch := runtime.NewOrchestrator(sum, nil, collector)
	srv := New(cfg, orch, nil, collector, notifier)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func submitSlides(t *testing.T, ts *httptest.Server, slides []string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"slides": slides})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/v1/summaries", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/summaries: %v", err)
	}
	return resp
}

func TestHandleSummariesStreamsFullSession(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})
	slides := []string{"alpha", "beta", "gamma"}

	resp := submitSlides(t, ts, slides)
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	dec := sse.NewDecoder(resp.Body)
	for i := range slides {
		ev, err := dec.Next()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		payload, err := ev.DecodeSummary()
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if payload.Index != i {
			t.Errorf("event %d: index = %d, want %d", i, payload.Index, i)
		}
		if payload.Total != len(slides) {
			t.Errorf("event %d: total = %d, want %d", i, payload.Total, len(slides))
		}
		want := fmt.Sprintf("summary of %q", slides[i])
		if payload.Summary != want {
			t.Errorf("event %d: summary = %q, want %q", i, payload.Summary, want)
		}
	}

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("done event: %v", err)
	}
	done, err := ev.DecodeDone()
	if err != nil {
		t.Fatalf("done event: %v", err)
	}
	if done.Total != len(slides) {
		t.Errorf("done total = %d, want %d", done.Total, len(slides))
	}
}

func TestHandleSummariesFailFast(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: 1})

	resp := submitSlides(t, ts, []string{"a", "b", "c", "d"})
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	dec := sse.NewDecoder(resp.Body)
	var seen []types.EventType
	for {
		ev, err := dec.Next()
		if err != nil {
			break
		}
		seen = append(seen, ev.Type)
	}

	want := []types.EventType{types.EventTypeSummary, types.EventTypeError}
	if len(seen) != len(want) {
		t.Fatalf("event types = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event types = %v, want %v", seen, want)
		}
	}
}

func TestHandleSummariesRejectsEmptyBatch(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})

	resp := submitSlides(t, ts, []string{})
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error == "" {
		t.Error("error body has empty message")
	}
}

func TestHandleSummariesRejectsOversizedBatch(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})

	slides := make([]string, runtime.MaxSlides+1)
	for i := range slides {
		slides[i] = "slide"
	}
	resp := submitSlides(t, ts, slides)
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestHandleSummariesRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})

	resp, err := http.Post(ts.URL+"/v1/summaries", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHandleMetricsReportsCounters(t *testing.T) {
	ts := newTestServer(t, &stubSummarizer{failAt: -1})

	resp := submitSlides(t, ts, []string{"one", "two"})
	drainEvents(t, resp)

	mresp, err := http.Get(ts.URL + "/metricz")
	if err != nil {
		t.Fatal(err)
	}
	defer iox.DrainClose(mresp.Body)

	var snap metrics.Snapshot
	if err := json.NewDecoder(mresp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.SummariesEmitted != 2 {
		t.Errorf("SummariesEmitted = %d, want 2", snap.SummariesEmitted)
	}
	if snap.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", snap.SessionsCompleted)
	}
}

// capturingAdapter records published completion events.
type capturingAdapter struct {
	mu     sync.Mutex
	events []*adapter.SessionCompletedEvent
}

func (c *capturingAdapter) Publish(_ context.Context, event *adapter.SessionCompletedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingAdapter) Close() error { return nil }

func (c *capturingAdapter) snapshot() []*adapter.SessionCompletedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*adapter.SessionCompletedEvent(nil), c.events...)
}

func waitForEvent(t *testing.T, c *capturingAdapter) *adapter.SessionCompletedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := c.snapshot(); len(events) > 0 {
			return events[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no completion event published within deadline")
	return nil
}

func TestCompletionNotificationOnSuccess(t *testing.T) {
	notifier := &capturingAdapter{}
	ts := newNotifyingTestServer(t, &stubSummarizer{failAt: -1}, notifier)

	resp := submitSlides(t, ts, []string{"one", "two", "three"})
	drainEvents(t, resp)

	event := waitForEvent(t, notifier)
	if event.Outcome != adapter.OutcomeCompleted {
		t.Errorf("outcome = %q, want %q", event.Outcome, adapter.OutcomeCompleted)
	}
	if event.SlideCount != 3 || event.Summarized != 3 {
		t.Errorf("slide_count = %d, summarized = %d, want 3, 3", event.SlideCount, event.Summarized)
	}
	if event.SessionID == "" {
		t.Error("session id missing")
	}
	if event.Error != "" {
		t.Errorf("unexpected error field: %q", event.Error)
	}
}

func TestCompletionNotificationOnFailure(t *testing.T) {
	notifier := &capturingAdapter{}
	ts := newNotifyingTestServer(t, &stubSummarizer{failAt: 1}, notifier)

	resp := submitSlides(t, ts, []string{"one", "two", "three"})
	drainEvents(t, resp)

	event := waitForEvent(t, notifier)
	if event.Outcome != adapter.OutcomeFailed {
		t.Errorf("outcome = %q, want %q", event.Outcome, adapter.OutcomeFailed)
	}
	if event.Summarized != 1 {
		t.Errorf("summarized = %d, want 1", event.Summarized)
	}
	if event.Error == "" {
		t.Error("error field missing on failed outcome")
	}
}

func TestNoNotificationOnRejectedSubmission(t *testing.T) {
	notifier := &capturingAdapter{}
	ts := newNotifyingTestServer(t, &stubSummarizer{failAt: -1}, notifier)

	resp := submitSlides(t, ts, []string{})
	iox.DrainClose(resp.Body)

	time.Sleep(50 * time.Millisecond)
	if events := notifier.snapshot(); len(events) != 0 {
		t.Errorf("rejected submission published %d events", len(events))
	}
}

func drainEvents(t *testing.T, resp *http.Response) {
	t.Helper()
	defer iox.DrainClose(resp.Body)
	dec := sse.NewDecoder(resp.Body)
	for {
		if _, err := dec.Next(); err != nil {
			return
		}
	}
}
