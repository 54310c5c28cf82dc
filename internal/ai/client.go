package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Failure modes of the AI capability. Callers are expected to degrade
// gracefully on either: ErrUnavailable means the service could not be
// reached at all (auth, timeout, connection), ErrProtocol means it answered
// with something unusable.
var (
	ErrUnavailable = errors.New("ai service unavailable")
	ErrProtocol    = errors.New("ai protocol error")
)

// Usage reports token consumption and an estimated cost for one call.
type Usage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostEstimate float64 `json:"cost_estimate"`
}

// Pricing per 1M tokens. Unlisted models fall back to the default entry.
var geminiPricing = map[string]struct{ input, output float64 }{
	"gemini-2.5-flash": {0.30, 2.50},
	"gemini-2.5-pro":   {1.25, 10.0},
	"default":          {0.30, 2.50},
}

func estimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := geminiPricing[model]
	if !ok {
		p = geminiPricing["default"]
	}
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}

// Caller is the outbound AI capability: prompt in, response text and usage
// stats out. The single suspension point of an analysis run.
type Caller interface {
	Generate(ctx context.Context, prompt string) (string, *Usage, error)
}

// GeminiCaller calls the Gemini API. One attempt per call, bounded by
// Timeout; retry policy belongs to the caller, not here.
type GeminiCaller struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGeminiCaller builds a caller for the given model. An empty API key is
// allowed at construction time; Generate will fail with ErrUnavailable.
func NewGeminiCaller(apiKey, model string, timeout time.Duration) *GeminiCaller {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiCaller{APIKey: apiKey, Model: model, Timeout: timeout}
}

// Generate sends the prompt and returns the raw response text.
func (c *GeminiCaller) Generate(ctx context.Context, prompt string) (string, *Usage, error) {
	if c.APIKey == "" {
		return "", nil, fmt.Errorf("GEMINI_API_KEY is not configured: %w", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", nil, classifyErr(fmt.Errorf("create genai client: %w", err))
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.Model, contents, nil)
	if err != nil {
		return "", nil, classifyErr(fmt.Errorf("generate content: %w", err))
	}

	usage := &Usage{Model: c.Model}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		usage.CostEstimate = estimateCost(c.Model, usage.InputTokens, usage.OutputTokens)
	}

	text := resp.Text()
	if text == "" {
		return "", usage, fmt.Errorf("empty response from model: %w", ErrProtocol)
	}

	return text, usage, nil
}

// classifyErr sorts an API error into the availability/protocol taxonomy.
// Matching on message text mirrors what the underlying SDK exposes.
func classifyErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission"),
		strings.Contains(msg, "authentication"):
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	case strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "context canceled"):
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "unavailable"):
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	default:
		return fmt.Errorf("%v: %w", err, ErrProtocol)
	}
}
