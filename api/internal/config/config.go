package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

type Config struct {
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`

	Provider     string `validate:"oneof=gemini openai"`
	GeminiAPIKey string
	GeminiModel  string `validate:"required"`
	OpenAIAPIKey string
	OpenAIModel  string `validate:"required"`

	EnrichPolicy  string        `validate:"oneof=missing always"`
	EnrichTimeout time.Duration `validate:"gte=0"`
	SegmentMode   string        `validate:"oneof=auto number answer"`
	PDFToText     string        `validate:"oneof=auto always never"`

	CacheDriver string `validate:"oneof=none memory sqlite postgres"`
	CacheDSN    string
	CacheMaxAge time.Duration `validate:"gte=0"`

	MaxUploadMB int64 `validate:"gt=0"`
	CORSOrigins []string

	TelegramBotToken string
	WebhookURL       string `validate:"omitempty,url"`
}

// APIKey is the credential of the selected provider; empty disables enrichment.
func (c *Config) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", eris.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getLower(k, def string) string { return strings.ToLower(getEnv(k, def)) }

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, eris.Wrapf(err, "env %s", k)
	}
	return d, nil
}

func getInt(k string, def int64) (int64, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "env %s", k)
	}
	return n, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from the environment, after a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		LogLevel: getLower("LOG_LEVEL", "info"),

		Provider:     getLower("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		EnrichPolicy: getLower("ENRICH_POLICY", "missing"),
		SegmentMode:  getLower("SEGMENT_MODE", "auto"),
		PDFToText:    getLower("PDFTOTEXT", "auto"),

		CacheDriver: getLower("CACHE_DRIVER", "memory"),
		CacheDSN:    getEnv("CACHE_DSN", ""),

		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}

	var err error
	if cfg.EnrichTimeout, err = getDuration("ENRICH_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getDuration("CACHE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = getInt("MAX_UPLOAD_MB", 20); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, eris.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadBot is Load plus the bot token.
func LoadBot() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.TelegramBotToken, err = mustEnv("TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, err
	}
	return cfg, nil
}
