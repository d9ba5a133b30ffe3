package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pithecene-io/deckbrief/adapter"
	"github.com/pithecene-io/deckbrief/runtime"
	"github.com/pithecene-io/deckbrief/sse"
	"github.com/pithecene-io/deckbrief/types"
)

// maxBodyBytes bounds the submission body. 50 slides of 8000 characters
// fit comfortably; anything near this limit is not a slide deck.
const maxBodyBytes = 8 << 20

// submitRequest is the submission body.
type submitRequest struct {
	Slides []string `json:"slides"`
}

// errorResponse is the immediate (non-streaming) error body.
type errorResponse struct {
	Error string `json:"error"`
}

// handleSummaries validates the submission and streams one summary event
// per slide. Validation failures answer with a JSON error before any
// streaming begins; once the stream is open, failures become error events.
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: expected {\"slides\": [...]}")
		return
	}

	if err := runtime.ValidateSlides(req.Slides); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := newSessionID()
	logger := s.logger.WithSession(sessionID, len(req.Slides))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The stream closes exactly once, when this handler returns. That
	// holds on every exit path: completion, summarizer failure, and
	// client disconnect (surfaced through r.Context()).
	defer logger.Debug("stream closed", nil)

	start := time.Now()
	emit := &countingEmitter{inner: sse.NewEncoder(w)}
	err := s.orchestrator.Run(r.Context(), req.Slides, emit)
	if err != nil {
		logger.Warn("session ended with error", map[string]any{"error": err.Error()})
	}
	s.notify(sessionID, len(req.Slides), emit.summaries, classifyOutcome(r.Context(), err), err, time.Since(start))
}

// countingEmitter tracks delivered summary events so completion
// notifications can report progress on failed and cancelled sessions.
type countingEmitter struct {
	inner     runtime.Emitter
	summaries int
}

func (c *countingEmitter) WriteEvent(eventType types.EventType, payload any) error {
	if err := c.inner.WriteEvent(eventType, payload); err != nil {
		return err
	}
	if eventType == types.EventTypeSummary {
		c.summaries++
	}
	return nil
}

func classifyOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return adapter.OutcomeCompleted
	case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return adapter.OutcomeCancelled
	default:
		return adapter.OutcomeFailed
	}
}

// notify publishes a session completion event in the background. The
// request context is already torn down by the time the session ends, so
// publishing runs against its own deadline.
func (s *Server) notify(sessionID string, slideCount, summarized int, outcome string, sessionErr error, elapsed time.Duration) {
	if s.notifier == nil {
		return
	}

	event := &adapter.SessionCompletedEvent{
		EventType:  "session_completed",
		SessionID:  sessionID,
		SlideCount: slideCount,
		Summarized: summarized,
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if sessionErr != nil {
		event.Error = sessionErr.Error()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.Publish(ctx, event); err != nil {
			s.logger.Warn("completion notification failed", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleMetrics reports the counter snapshot.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.collector.Snapshot()); err != nil {
		s.logger.Warn("metrics encode failed", map[string]any{"error": err.Error()})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// newSessionID returns a short random identifier for log correlation.
func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
