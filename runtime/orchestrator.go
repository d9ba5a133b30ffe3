// Package runtime coordinates one summarization session end to end:
// sequential summarizer calls, per-slide event emission, and fail-fast
// termination on the first provider failure.
package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/deckbrief/log"
	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/summarize"
	"github.com/pithecene-io/deckbrief/types"
)

// MaxSlides is the hard ceiling on slides per submission.
// Enforced on both sides: the server handler before streaming begins, and
// the client before any network I/O.
const MaxSlides = 50

// Validation errors. These are caller-input failures, surfaced synchronously
// before the stream opens — never as stream events.
var (
	ErrNoSlides      = errors.New("presentation contains no slides")
	ErrTooManySlides = fmt.Errorf("presentation exceeds the %d slide limit", MaxSlides)
)

// ValidateSlides checks the batch shape ahead of any summarizer call.
func ValidateSlides(slides []string) error {
	if len(slides) == 0 {
		return ErrNoSlides
	}
	if len(slides) > MaxSlides {
		return ErrTooManySlides
	}
	return nil
}

// Emitter delivers one framed event to the response channel.
// sse.Encoder satisfies it.
type Emitter interface {
	WriteEvent(eventType types.EventType, payload any) error
}

// Orchestrator runs summarization sessions against a single summarizer.
// Safe for concurrent Run calls; all per-session state is local to Run.
type Orchestrator struct {
	summarizer summarize.Summarizer
	logger     *log.Logger
	collector  *metrics.Collector
}

// NewOrchestrator creates an orchestrator.
// collector may be nil (all metrics methods are nil-safe).
func NewOrchestrator(s summarize.Summarizer, logger *log.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		summarizer: s,
		logger:     logger,
		collector:  collector,
	}
}

// Run summarizes each slide in strict ascending index order, emitting one
// summary event per completed slide, then a single done event.
//
// Protocol:
//   - Validation failures return before any event is emitted.
//   - The first summarizer failure emits exactly one error event and aborts
//     the remaining batch (fail-fast); no done event follows.
//   - Cancellation stops further summarizer calls without emitting an error
//     event — the channel's write target is being torn down with the
//     connection.
//
// Summarization is sequential by design: it bounds concurrency against a
// shared rate-limited endpoint and keeps emitted indices monotonic so the
// client needs no reordering buffer. Closing the response channel belongs
// to the transport layer that owns it, in a deferred block on every exit
// path.
func (o *Orchestrator) Run(ctx context.Context, slides []string, emit Emitter) error {
	if err := ValidateSlides(slides); err != nil {
		return err
	}

	total := len(slides)
	o.collector.IncSessionStarted()
	o.logger.Info("session started", map[string]any{"slides": total})

	for i, text := range slides {
		if err := ctx.Err(); err != nil {
			o.collector.IncSessionCancelled()
			o.logger.Info("session canceled", map[string]any{"completed": i})
			return fmt.Errorf("canceled before slide %d: %w", i, err)
		}

		summary, err := o.summarizer.Summarize(ctx, text, i)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.collector.IncSessionCancelled()
				o.logger.Info("session canceled", map[string]any{"completed": i})
				return fmt.Errorf("canceled during slide %d: %w", i, err)
			}

			o.collector.IncProviderError()
			o.collector.IncSessionFailed()
			o.logger.Error("summarizer failed", map[string]any{
				"slide": i,
				"error": err.Error(),
			})
			if emitErr := emit.WriteEvent(types.EventTypeError, types.ErrorPayload{Message: err.Error()}); emitErr != nil {
				o.logger.Warn("error event not delivered", map[string]any{"error": emitErr.Error()})
			}
			return fmt.Errorf("slide %d: %w", i, err)
		}

		if err := emit.WriteEvent(types.EventTypeSummary, types.SummaryPayload{
			Index:   i,
			Summary: summary,
			Total:   total,
		}); err != nil {
			// Channel write failure means the consumer is gone; there is
			// nowhere left to report to.
			o.collector.IncSessionCancelled()
			return fmt.Errorf("emit summary %d: %w", i, err)
		}
		o.collector.IncSummaryEmitted()
	}

	if err := emit.WriteEvent(types.EventTypeDone, types.DonePayload{Total: total}); err != nil {
		o.collector.IncSessionCancelled()
		return fmt.Errorf("emit done: %w", err)
	}

	o.collector.IncSessionCompleted()
	o.logger.Info("session completed", map[string]any{"slides": total})
	return nil
}
