// Package types defines the wire-level event vocabulary shared by the
// deckbrief server, client, and CLI.
package types

import (
	"encoding/json"
	"fmt"
)

// EventType is the event name carried on the event line of a stream block.
type EventType string

// Event type constants for the summary stream.
const (
	// EventTypeSummary carries one completed slide summary.
	EventTypeSummary EventType = "summary"
	// EventTypeError reports a batch-fatal failure; no further events follow.
	EventTypeError EventType = "error"
	// EventTypeDone marks successful completion of the whole batch.
	EventTypeDone EventType = "done"
)

// IsTerminal returns true if this event type ends the stream.
func (e EventType) IsTerminal() bool {
	return e == EventTypeDone || e == EventTypeError
}

// Event is one decoded stream block: an event name plus its raw JSON payload.
// Typed access goes through the Decode* helpers.
type Event struct {
	Type EventType
	Data json.RawMessage
}

// SummaryPayload is the payload of a summary event.
// Index values are emitted at most once per session.
type SummaryPayload struct {
	// Index is the zero-based slide position in the submitted batch.
	Index int `json:"index"`
	// Summary is the model-produced summary for the slide.
	Summary string `json:"summary"`
	// Total is the batch size, constant across a session.
	Total int `json:"total"`
}

// ErrorPayload is the payload of an error event.
type ErrorPayload struct {
	// Message describes the failure in plain language.
	Message string `json:"message"`
}

// DonePayload is the payload of a done event.
type DonePayload struct {
	// Total is the number of summaries delivered before completion.
	Total int `json:"total"`
}

// DecodeSummary decodes the event payload as a SummaryPayload.
func (ev *Event) DecodeSummary() (*SummaryPayload, error) {
	if ev.Type != EventTypeSummary {
		return nil, fmt.Errorf("cannot decode %q event as summary", ev.Type)
	}
	var p SummaryPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		return nil, fmt.Errorf("decode summary payload: %w", err)
	}
	return &p, nil
}

// DecodeError decodes the event payload as an ErrorPayload.
func (ev *Event) DecodeError() (*ErrorPayload, error) {
	if ev.Type != EventTypeError {
		return nil, fmt.Errorf("cannot decode %q event as error", ev.Type)
	}
	var p ErrorPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		return nil, fmt.Errorf("decode error payload: %w", err)
	}
	return &p, nil
}

// DecodeDone decodes the event payload as a DonePayload.
func (ev *Event) DecodeDone() (*DonePayload, error) {
	if ev.Type != EventTypeDone {
		return nil, fmt.Errorf("cannot decode %q event as done", ev.Type)
	}
	var p DonePayload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		return nil, fmt.Errorf("decode done payload: %w", err)
	}
	return &p, nil
}
