package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/types"
)

// recordingEmitter captures every emitted event in order.
type recordingEmitter struct {
	events []recordedEvent
	// failAfter, when > 0, fails the Nth write (1-based).
	failAfter int
}

type recordedEvent struct {
	eventType types.EventType
	payload   any
}

func (e *recordingEmitter) WriteEvent(eventType types.EventType, payload any) error {
	if e.failAfter > 0 && len(e.events)+1 >= e.failAfter {
		return errors.New("write to closed channel")
	}
	e.events = append(e.events, recordedEvent{eventType: eventType, payload: payload})
	return nil
}

// fakeSummarizer succeeds until failAt (zero-based index), then fails.
// failAt < 0 means never fail.
type fakeSummarizer struct {
	calls  int
	failAt int
	err    error
}

func (s *fakeSummarizer) Summarize(_ context.Context, text string, index int) (string, error) {
	s.calls++
	if s.failAt >= 0 && index == s.failAt {
		return "", s.err
	}
	return fmt.Sprintf("summary of %q", text), nil
}

func slides(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("slide %d text", i)
	}
	return out
}

func TestRun_AllSucceed(t *testing.T) {
	summ := &fakeSummarizer{failAt: -1}
	emit := &recordingEmitter{}
	o := NewOrchestrator(summ, nil, metrics.NewCollector())

	if err := o.Run(context.Background(), slides(5), emit); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(emit.events) != 6 {
		t.Fatalf("emitted %d events, want 6 (5 summaries + done)", len(emit.events))
	}
	for i := range 5 {
		ev := emit.events[i]
		if ev.eventType != types.EventTypeSummary {
			t.Fatalf("events[%d].Type = %q, want summary", i, ev.eventType)
		}
		p := ev.payload.(types.SummaryPayload)
		if p.Index != i {
			t.Errorf("events[%d].Index = %d, want %d (strict ascending order)", i, p.Index, i)
		}
		if p.Total != 5 {
			t.Errorf("events[%d].Total = %d, want 5", i, p.Total)
		}
	}
	last := emit.events[5]
	if last.eventType != types.EventTypeDone {
		t.Fatalf("final event = %q, want done", last.eventType)
	}
	if p := last.payload.(types.DonePayload); p.Total != 5 {
		t.Errorf("done.Total = %d, want 5", p.Total)
	}
}

func TestRun_FailFastAtK(t *testing.T) {
	const k = 3
	summ := &fakeSummarizer{failAt: k, err: errors.New("provider unavailable")}
	emit := &recordingEmitter{}
	o := NewOrchestrator(summ, nil, nil)

	err := o.Run(context.Background(), slides(10), emit)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Exactly k summaries (0..k-1), then one error event, then nothing.
	if len(emit.events) != k+1 {
		t.Fatalf("emitted %d events, want %d", len(emit.events), k+1)
	}
	for i := range k {
		if emit.events[i].eventType != types.EventTypeSummary {
			t.Errorf("events[%d].Type = %q, want summary", i, emit.events[i].eventType)
		}
	}
	last := emit.events[k]
	if last.eventType != types.EventTypeError {
		t.Fatalf("final event = %q, want error", last.eventType)
	}
	if p := last.payload.(types.ErrorPayload); !strings.Contains(p.Message, "provider unavailable") {
		t.Errorf("error message = %q", p.Message)
	}

	// No further indices processed after the failure.
	if summ.calls != k+1 {
		t.Errorf("summarizer calls = %d, want %d", summ.calls, k+1)
	}
}

func TestRun_EmptyBatchRejected(t *testing.T) {
	summ := &fakeSummarizer{failAt: -1}
	o := NewOrchestrator(summ, nil, nil)

	err := o.Run(context.Background(), nil, &recordingEmitter{})
	if !errors.Is(err, ErrNoSlides) {
		t.Fatalf("err = %v, want ErrNoSlides", err)
	}
	if summ.calls != 0 {
		t.Errorf("summarizer called %d times for empty batch", summ.calls)
	}
}

func TestRun_OversizedBatchRejectedBeforeAnyCall(t *testing.T) {
	summ := &fakeSummarizer{failAt: -1}
	emit := &recordingEmitter{}
	o := NewOrchestrator(summ, nil, nil)

	err := o.Run(context.Background(), slides(MaxSlides+1), emit)
	if !errors.Is(err, ErrTooManySlides) {
		t.Fatalf("err = %v, want ErrTooManySlides", err)
	}
	if summ.calls != 0 {
		t.Errorf("summarizer called %d times, want 0", summ.calls)
	}
	if len(emit.events) != 0 {
		t.Errorf("emitted %d events before validation, want 0", len(emit.events))
	}
}

func TestRun_BatchAtCeilingAccepted(t *testing.T) {
	summ := &fakeSummarizer{failAt: -1}
	emit := &recordingEmitter{}
	o := NewOrchestrator(summ, nil, nil)

	if err := o.Run(context.Background(), slides(MaxSlides), emit); err != nil {
		t.Fatalf("Run failed at exactly MaxSlides: %v", err)
	}
	if len(emit.events) != MaxSlides+1 {
		t.Errorf("emitted %d events, want %d", len(emit.events), MaxSlides+1)
	}
}

// cancellingSummarizer cancels the context after finishing slide cancelAt.
type cancellingSummarizer struct {
	cancel   context.CancelFunc
	cancelAt int
	calls    int
}

func (s *cancellingSummarizer) Summarize(_ context.Context, _ string, index int) (string, error) {
	s.calls++
	if index == s.cancelAt {
		s.cancel()
	}
	return "ok", nil
}

func TestRun_CancellationStopsFurtherSlides(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	summ := &cancellingSummarizer{cancel: cancel, cancelAt: 1}
	emit := &recordingEmitter{}
	o := NewOrchestrator(summ, nil, nil)

	err := o.Run(ctx, slides(10), emit)
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}

	// Slides 0 and 1 completed before cancellation was observed.
	if summ.calls != 2 {
		t.Errorf("summarizer calls = %d, want 2", summ.calls)
	}
	// No error event on cancellation: the connection is being torn down.
	for _, ev := range emit.events {
		if ev.eventType == types.EventTypeError {
			t.Error("error event emitted on cancellation")
		}
	}
}

// canceledErrSummarizer fails with a context error, as a real provider call
// does when its request context is canceled mid-flight.
type canceledErrSummarizer struct{}

func (canceledErrSummarizer) Summarize(_ context.Context, _ string, _ int) (string, error) {
	return "", fmt.Errorf("do request: %w", context.Canceled)
}

func TestRun_ProviderCancellationEmitsNoErrorEvent(t *testing.T) {
	emit := &recordingEmitter{}
	o := NewOrchestrator(canceledErrSummarizer{}, nil, nil)

	err := o.Run(context.Background(), slides(3), emit)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
	if len(emit.events) != 0 {
		t.Errorf("emitted %d events, want 0", len(emit.events))
	}
}

func TestRun_EmitFailureAborts(t *testing.T) {
	summ := &fakeSummarizer{failAt: -1}
	emit := &recordingEmitter{failAfter: 3}
	o := NewOrchestrator(summ, nil, nil)

	err := o.Run(context.Background(), slides(10), emit)
	if err == nil {
		t.Fatal("expected emit failure error, got nil")
	}
	// Two summaries delivered, the third write failed, no further calls.
	if summ.calls != 3 {
		t.Errorf("summarizer calls = %d, want 3", summ.calls)
	}
}

func TestValidateSlides(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr error
	}{
		{"empty", 0, ErrNoSlides},
		{"single", 1, nil},
		{"at ceiling", MaxSlides, nil},
		{"over ceiling", MaxSlides + 1, ErrTooManySlides},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlides(slides(tt.count))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSlides(%d) = %v, want %v", tt.count, err, tt.wantErr)
			}
		})
	}
}
