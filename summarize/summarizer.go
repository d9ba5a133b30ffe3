// Package summarize defines the external summarization collaborator and its
// OpenAI-backed implementation.
//
// The orchestrator treats a Summarizer as opaque and fallible: retry and
// timeout policy belong to the provider environment, not to this core.
package summarize

import "context"

// MaxInputChars is the maximum summarizer input length in characters.
// Overlong slide text is truncated rather than rejected.
const MaxInputChars = 8000

// Summarizer produces one short summary for a single slide's text.
// index is the zero-based slide position, available for prompt context.
type Summarizer interface {
	Summarize(ctx context.Context, text string, index int) (string, error)
}

// Truncate caps text at MaxInputChars characters, preserving whole runes.
func Truncate(text string) string {
	if len(text) <= MaxInputChars {
		return text
	}
	count := 0
	for i := range text {
		if count == MaxInputChars {
			return text[:i]
		}
		count++
	}
	return text
}
