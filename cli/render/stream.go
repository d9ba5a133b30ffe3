package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	accentColor  = lipgloss.Color("#3B82F6") // Blue
)

// StreamRenderer prints summary stream progress line by line as events
// arrive. Used by the summarize command for its incremental output.
type StreamRenderer struct {
	out     io.Writer
	badge   lipgloss.Style
	text    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewStreamRenderer creates a stream renderer writing to out.
// With noColor set, all styling is disabled.
func NewStreamRenderer(out io.Writer, noColor bool) *StreamRenderer {
	r := &StreamRenderer{
		out:     out,
		badge:   lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		text:    lipgloss.NewStyle(),
		success: lipgloss.NewStyle().Bold(true).Foreground(successColor),
		failure: lipgloss.NewStyle().Bold(true).Foreground(errorColor),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
	}
	if noColor {
		plain := lipgloss.NewStyle()
		r.badge, r.text, r.success, r.failure, r.muted = plain, plain, plain, plain, plain
	}
	return r
}

// Summary prints one summary line with a slide-position badge.
// index is zero-based on the wire; display is one-based.
func (r *StreamRenderer) Summary(index int, summary string, total int) {
	badge := fmt.Sprintf("[%d/%d]", index+1, total)
	fmt.Fprintf(r.out, "%s %s\n", r.badge.Render(badge), r.text.Render(summary))
}

// Error prints the stream's terminal error line.
func (r *StreamRenderer) Error(message string) {
	fmt.Fprintf(r.out, "%s %s\n", r.failure.Render("error:"), message)
}

// Done prints the completion line.
func (r *StreamRenderer) Done(total int) {
	fmt.Fprintln(r.out, r.success.Render(fmt.Sprintf("done: %d slides summarized", total)))
}

// Cancelled prints the cancellation line, with how far the run got.
func (r *StreamRenderer) Cancelled(completed int) {
	fmt.Fprintln(r.out, r.muted.Render(fmt.Sprintf("cancelled after %d summaries", completed)))
}
