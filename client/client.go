// Package client submits presentations to a summary server and consumes
// the resulting event stream incrementally.
//
// Extraction runs locally before any network I/O, so malformed archives
// and oversized decks are rejected without a round trip.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pithecene-io/deckbrief/deck"
	"github.com/pithecene-io/deckbrief/iox"
	"github.com/pithecene-io/deckbrief/log"
	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/runtime"
	"github.com/pithecene-io/deckbrief/sse"
	"github.com/pithecene-io/deckbrief/types"
)

// ErrNotPresentation is returned for filenames without a recognized
// presentation extension.
var ErrNotPresentation = errors.New("not a presentation file")

// ErrStreamTruncated is returned when the event stream ends without a
// terminal event.
var ErrStreamTruncated = errors.New("stream ended without a terminal event")

// Client submits one presentation at a time. Submitting while a previous
// submission is in flight cancels the previous one first.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger

	// OnSummary, when set, is invoked for each summary event as it
	// arrives, before the session records it. Called from the Submit
	// goroutine.
	OnSummary func(index int, summary string, total int)

	// Collector, when set, records extraction and decode counters.
	// All collector methods tolerate a nil receiver, so the field may
	// stay unset.
	Collector *metrics.Collector

	mu      sync.Mutex
	cancel  context.CancelFunc
	session *Session
}

// NewClient creates a client for the server at baseURL.
// logger may be nil.
func NewClient(baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Submit extracts slide text from the archive, submits it, and consumes
// the event stream until a terminal event, a transport failure, or
// cancellation. It blocks for the life of the stream and returns the
// session, whose partial results survive every outcome.
//
// Validation failures (wrong extension, malformed archive, empty or
// oversized deck) return before any network I/O, with a nil session.
func (c *Client) Submit(ctx context.Context, filename string, archive []byte) (*Session, error) {
	if !deck.IsPresentation(filename) {
		return nil, fmt.Errorf("%q: %w", filename, ErrNotPresentation)
	}
	slides, err := deck.Extract(archive)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", filename, err)
	}
	if err := runtime.ValidateSlides(slides); err != nil {
		return nil, err
	}
	c.Collector.IncArchiveExtracted()
	c.Collector.AddSlidesExtracted(len(slides))

	session := newSession()
	ctx = c.begin(ctx, session)

	c.logger.Info("submitting presentation", map[string]any{
		"file":   filename,
		"slides": len(slides),
	})

	session.start()
	if err := c.consume(ctx, slides, session); err != nil {
		return session, err
	}
	return session, nil
}

// begin installs a new in-flight session, cancelling any previous one.
func (c *Client) begin(ctx context.Context, session *Session) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.session = session
	return ctx
}

// Cancel tears down the in-flight submission, if any. The session keeps
// the summaries received so far.
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Session returns the most recent session, or nil before the first Submit.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) consume(ctx context.Context, slides []string, session *Session) error {
	body, err := json.Marshal(map[string][]string{"slides": slides})
	if err != nil {
		session.finish(PhaseFailed, err)
		return fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/summaries", bytes.NewReader(body))
	if err != nil {
		session.finish(PhaseFailed, err)
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.abort(ctx, session, fmt.Errorf("submit: %w", err))
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("server rejected submission: %s", rejectionMessage(resp))
		session.finish(PhaseFailed, err)
		return err
	}

	dec := sse.NewDecoder(resp.Body)
	dec.OnDrop = c.Collector.IncDecodeDrop
	for {
		ev, err := dec.Next()
		if err != nil {
			return c.abort(ctx, session, fmt.Errorf("read stream: %w", err))
		}

		switch ev.Type {
		case types.EventTypeSummary:
			p, err := ev.DecodeSummary()
			if err != nil {
				c.logger.Warn("undecodable summary event", map[string]any{"error": err.Error()})
				continue
			}
			if c.OnSummary != nil {
				c.OnSummary(p.Index, p.Summary, p.Total)
			}
			session.recordSummary(p.Index, p.Summary, p.Total)

		case types.EventTypeError:
			p, err := ev.DecodeError()
			if err != nil {
				p = &types.ErrorPayload{Message: "unspecified server error"}
			}
			failure := fmt.Errorf("summarization failed: %s", p.Message)
			session.finish(PhaseFailed, failure)
			return failure

		case types.EventTypeDone:
			session.finish(PhaseDone, nil)
			return nil
		}
	}
}

// abort classifies a consume failure: caller cancellation is a clean
// teardown, everything else fails the session.
func (c *Client) abort(ctx context.Context, session *Session, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(ctxErr, context.Canceled) || errors.Is(ctxErr, context.DeadlineExceeded)) {
		session.finish(PhaseCancelled, nil)
		c.logger.Info("submission cancelled", map[string]any{
			"completed": session.Completed(),
		})
		return nil
	}
	if errors.Is(err, io.EOF) {
		err = ErrStreamTruncated
	}
	session.finish(PhaseFailed, err)
	return err
}

func rejectionMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return resp.Status
	}
	return body.Error
}
