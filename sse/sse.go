// Package sse implements the line-oriented event-stream framing used by the
// summary delivery channel.
//
// One block per event, terminated by a blank line:
//
//	event: <name>
//	data: <json>
//
// The decoder tolerates blocks split across arbitrary read-chunk boundaries
// and drops malformed blocks without aborting the stream.
package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pithecene-io/deckbrief/types"
)

// Line markers per the event-stream framing.
const (
	eventMarker = "event:"
	dataMarker  = "data:"
)

// flusher is the subset of http.Flusher the encoder needs. Declared locally
// so the package does not depend on net/http.
type flusher interface {
	Flush()
}

// Encoder writes framed events to a stream.
// Exactly one writer owns an Encoder for the lifetime of a session.
type Encoder struct {
	w io.Writer
	f flusher
}

// NewEncoder creates an encoder for w. If w also implements Flush (as
// http.ResponseWriter does for streaming responses), each event is flushed
// to the transport as soon as it is written.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	if f, ok := w.(flusher); ok {
		e.f = f
	}
	return e
}

// WriteEvent writes exactly one block for the given event name and payload.
func (e *Encoder) WriteEvent(eventType types.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	if _, err := fmt.Fprintf(e.w, "%s %s\n%s %s\n\n", eventMarker, eventType, dataMarker, data); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}

	if e.f != nil {
		e.f.Flush()
	}
	return nil
}

// Decoder reads framed events from a stream.
//
// Resilience guarantees:
//   - A block split across multiple read chunks is buffered until the
//     terminating blank line arrives.
//   - A trailing partial block at end-of-stream is dropped, never parsed
//     as complete.
//   - A block without a data line is ignored.
//   - A block whose payload fails to parse as JSON is dropped; later
//     blocks keep decoding.
type Decoder struct {
	r *bufio.Reader

	// OnDrop, when set, is invoked once for each accumulated block the
	// decoder discards: a payload that is not valid JSON, a block without
	// a data line, or the trailing partial block at end-of-stream.
	OnDrop func()
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next complete, well-formed event.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more events)
//   - any other error: transport failure from the underlying reader
func (d *Decoder) Next() (*types.Event, error) {
	var (
		name string
		data bytes.Buffer
	)

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Partial trailing block: drop it rather than parse an
				// incomplete payload.
				if name != "" || data.Len() > 0 {
					d.drop()
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line terminates the block.
		if line == "" {
			ev, ok := d.finishBlock(name, data.Bytes())
			if ok {
				return ev, nil
			}
			// Ignored or malformed block: reset and keep reading. Bare
			// blank lines between blocks accumulate nothing and are not
			// drops.
			if name != "" || data.Len() > 0 {
				d.drop()
			}
			name = ""
			data.Reset()
			continue
		}

		switch {
		case strings.HasPrefix(line, eventMarker):
			name = strings.TrimPrefix(strings.TrimPrefix(line, eventMarker), " ")
		case strings.HasPrefix(line, dataMarker):
			// Multiple data lines concatenate in order; a single JSON
			// payload may be split across them.
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, dataMarker), " "))
		default:
			// Unknown line within a block (e.g. comments): skip.
		}
	}
}

func (d *Decoder) drop() {
	if d.OnDrop != nil {
		d.OnDrop()
	}
}

// finishBlock validates an accumulated block. Returns false for blocks that
// must be dropped: missing event name, missing data line, or a payload that
// is not valid JSON.
func (d *Decoder) finishBlock(name string, data []byte) (*types.Event, bool) {
	if name == "" || len(data) == 0 {
		return nil, false
	}
	if !json.Valid(data) {
		return nil, false
	}
	return &types.Event{
		Type: types.EventType(name),
		Data: append(json.RawMessage(nil), data...),
	}, true
}
