// Package gemini completes prompts with Google's Gemini models.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-pro"

type Engine struct {
	APIKey string
	Model  string

	// Attempts bounds retries of transient failures.
	Attempts int
	backoff  time.Duration
}

func New(apiKey, model string) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Model:    model,
		Attempts: 3,
		backoff:  300 * time.Millisecond,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Complete sends prompt as a single user turn and returns the first text part.
func (e *Engine) Complete(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", eris.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", eris.Wrap(err, "gemini: new client")
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", eris.New("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	return e.generate(ctx, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return m.GenerateContent(ctx, genai.Text(prompt))
	})
}

// generate retries call with linear backoff and returns the first text part.
func (e *Engine) generate(ctx context.Context, call func(context.Context) (*genai.GenerateContentResponse, error)) (string, error) {
	attempts := max(e.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := call(ctx)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(attempt) * e.backoff):
			}
			continue
		}
		txt := firstText(resp)
		if strings.TrimSpace(txt) == "" {
			return "", eris.New("gemini: empty response")
		}
		return txt, nil
	}
	return "", eris.Wrapf(lastErr, "gemini: %d attempts failed", attempts)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
