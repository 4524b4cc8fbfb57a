// Package openai completes prompts with the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string

	Attempts int
	backoff  time.Duration
	httpc    *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// long documents take a while before the first header arrives
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:   strings.TrimSpace(key),
		Model:    model,
		BaseURL:  DefaultBaseURL,
		Attempts: 3,
		backoff:  300 * time.Millisecond,
		// the caller's context bounds the request
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client.
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string     { return "openai" }
func (e *Engine) GetModel() string { return e.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError is an HTTP failure; 429 and 5xx are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return "openai " + http.StatusText(e.code) + ": " + e.body
}

func (e *statusError) temporary() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (e *Engine) Complete(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", eris.New("OPENAI_API_KEY is empty")
	}
	payload, err := json.Marshal(chatRequest{
		Model:       e.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: encode request")
	}

	attempts := max(e.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := e.do(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !se.temporary() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt) * e.backoff):
		}
	}
	return "", eris.Wrap(lastErr, "openai: completion failed")
}

func (e *Engine) do(ctx context.Context, payload []byte) (string, error) {
	url := strings.TrimRight(e.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: truncateBytes(bytes.TrimSpace(raw), 512)}
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", eris.Wrapf(err, "openai: bad envelope; body=%s", truncateBytes(raw, 512))
	}
	for _, c := range out.Choices {
		if s := strings.TrimSpace(c.Message.Content); s != "" {
			return s, nil
		}
	}
	return "", eris.Errorf("openai: empty output; body=%s", truncateBytes(raw, 512))
}

func truncateBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
