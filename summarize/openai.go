package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const maxOutputTokens int64 = 256

const systemPrompt = `You summarize presentation slides. Given the text content of one slide, reply with a single short natural-language sentence capturing the slide's main point.

Rules:
- One sentence, at most 30 words.
- Keep critical specifics (names, dates, numbers).
- Neutral tone, no bullet points, no preamble.
- Reply in the same language as the slide text.`

// emptySlideSummary is returned without a provider call for slides whose
// text extraction produced nothing (degraded or genuinely empty slides).
// Calling the model with empty input would fail the whole batch under the
// fail-fast policy.
const emptySlideSummary = "This slide contains no readable text."

// OpenAISummarizer produces summaries via the OpenAI Responses API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer builds a summarizer for the given provider endpoint.
// baseURL may be empty to use the provider default.
func NewOpenAISummarizer(baseURL, apiKey, model string) *OpenAISummarizer {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Summarize produces one summary sentence for a slide.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, index int) (string, error) {
	text = Truncate(strings.TrimSpace(text))
	if text == "" {
		return emptySlideSummary, nil
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Slide %d content:\n", index+1)
	user.WriteString(text)

	resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           shared.ResponsesModel(s.model),
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(user.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize slide %d: %w", index+1, err)
	}

	summary := strings.TrimSpace(resp.OutputText())
	if summary == "" {
		return "", fmt.Errorf("summarize slide %d: empty model output (status = %s)", index+1, resp.Status)
	}
	return summary, nil
}

// Verify OpenAISummarizer implements Summarizer.
var _ Summarizer = (*OpenAISummarizer)(nil)
