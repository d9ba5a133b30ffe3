// Package adapter defines the notification boundary for completed
// summarization sessions.
//
// Adapters publish session completion events to downstream systems.
// The server owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"
)

// Session outcomes carried in completion events.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// SessionCompletedEvent is the payload published when a summarization
// session ends, on every outcome.
type SessionCompletedEvent struct {
	EventType  string `json:"event_type"` // always "session_completed"
	SessionID  string `json:"session_id"`
	SlideCount int    `json:"slide_count"`
	Summarized int    `json:"summarized"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"` // RFC 3339
}

// Adapter publishes session completion events to a downstream system.
// Implementations must be safe for concurrent Publish calls.
type Adapter interface {
	// Publish sends a session completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff sleeps for the exponential backoff interval before retry
// attempt (attempt >= 1 counts retries, not the initial try). Returns
// the context error if cancellation fires first.
func Backoff(ctx context.Context, attempt int) error {
	d := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
