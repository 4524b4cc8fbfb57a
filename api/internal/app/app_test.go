package app

import (
	"context"
	"testing"

	"mcq-exam/api/internal/config"
	"mcq-exam/api/internal/docread"
)

func baseConfig() *config.Config {
	return &config.Config{
		Provider:     "gemini",
		GeminiModel:  "gemini-2.5-pro",
		OpenAIModel:  "gpt-4o-mini",
		EnrichPolicy: "missing",
		SegmentMode:  "auto",
		PDFToText:    "never",
		CacheDriver:  "memory",
	}
}

func TestNewCompleter(t *testing.T) {
	cfg := baseConfig()
	if NewCompleter(cfg) != nil {
		t.Error("engine built without a key")
	}
	cfg.GeminiAPIKey = "g"
	if c := NewCompleter(cfg); c == nil || c.Name() != "gemini" {
		t.Errorf("gemini engine = %v", c)
	}
	cfg.Provider, cfg.OpenAIAPIKey = "openai", "o"
	if c := NewCompleter(cfg); c == nil || c.Name() != "openai" || c.GetModel() != "gpt-4o-mini" {
		t.Errorf("openai engine = %v", c)
	}
}

func TestNewWithoutKey(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	ex, err := a.Pipeline.Extract(context.Background(), []byte("1. Q?\na) x\nb) y\nANSWER: a\n"), docread.KindText)
	if err != nil || len(ex.Questions) != 1 || ex.Enriched {
		t.Fatalf("extraction = %+v, %v", ex, err)
	}
}

func TestNewRejectsBadMode(t *testing.T) {
	cfg := baseConfig()
	cfg.SegmentMode = "pages"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}
