package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LLM_PROVIDER", "GEMINI_API_KEY", "ENRICH_POLICY", "ENRICH_TIMEOUT", "CACHE_DRIVER", "MAX_UPLOAD_MB", "CORS_ORIGINS", "WEBHOOK_URL", "LOG_LEVEL", "SEGMENT_MODE", "PDFTOTEXT", "CACHE_MAX_AGE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8000" || cfg.Provider != "gemini" || cfg.EnrichPolicy != "missing" || cfg.CacheDriver != "memory" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.EnrichTimeout != 120*time.Second || cfg.CacheMaxAge != 24*time.Hour {
		t.Errorf("durations = %v, %v", cfg.EnrichTimeout, cfg.CacheMaxAge)
	}
	if cfg.MaxUploadBytes() != 20<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes())
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.APIKey() != "" {
		t.Errorf("api key = %q", cfg.APIKey())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ENRICH_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SEGMENT_MODE", "answer")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" || cfg.APIKey() != "sk-test" || cfg.EnrichTimeout != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"LLM_PROVIDER":   "claude",
		"ENRICH_TIMEOUT": "soon",
		"MAX_UPLOAD_MB":  "0",
		"CACHE_DRIVER":   "redis",
		"PORT":           "http",
		"WEBHOOK_URL":    "not a url",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q accepted", k, v)
			}
		})
	}
}

func TestLoadBotRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if _, err := LoadBot(); err == nil {
		t.Fatal("expected error without token")
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg, err := LoadBot()
	if err != nil || cfg.TelegramBotToken != "123:abc" {
		t.Fatalf("cfg = %+v, %v", cfg, err)
	}
}
