package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
)

func reply(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}}
}

func TestFirstText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, ""},
		{"skips blobs", reply(genai.Blob{MIMEType: "image/png", Data: []byte{1}}, genai.Text("[1]")), "[1]"},
		{"later candidate", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
			{Content: &genai.Content{}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("[2]")}}},
		}}, "[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstText(tt.resp); got != tt.want {
				t.Errorf("firstText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateRetries(t *testing.T) {
	e := New("key", "")
	e.backoff = time.Millisecond

	calls := 0
	got, err := e.generate(context.Background(), func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("unavailable")
		}
		return reply(genai.Text("[]")), nil
	})
	if err != nil || got != "[]" || calls != 3 {
		t.Fatalf("got %q, %v after %d calls", got, err, calls)
	}

	calls = 0
	_, err = e.generate(context.Background(), func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("unavailable")
	})
	if err == nil || calls != 3 {
		t.Errorf("err = %v after %d calls, want failure after 3", err, calls)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	e := New("key", "")
	calls := 0
	_, err := e.generate(context.Background(), func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		return reply(genai.Text("  ")), nil
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestGenerateStopsOnCancel(t *testing.T) {
	e := New("key", "")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := e.generate(ctx, func(context.Context) (*genai.GenerateContentResponse, error) {
		calls++
		cancel()
		return nil, context.Canceled
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestCompleteWithoutKey(t *testing.T) {
	if _, err := New("", "").Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error without API key")
	}
	if New("k", "").GetModel() != DefaultModel {
		t.Error("default model not applied")
	}
}
