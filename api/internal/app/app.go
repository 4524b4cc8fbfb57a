// Package app wires configuration into the extraction pipeline and exam service
// shared by the server, the bot and the CLI.
package app

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/config"
	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/exam"
	"mcq-exam/api/internal/extract"
	"mcq-exam/api/internal/llm/gemini"
	"mcq-exam/api/internal/llm/openai"
	"mcq-exam/api/internal/mcq"
	"mcq-exam/api/internal/resolver"
	"mcq-exam/api/internal/store"
)

const cachePurgeInterval = time.Hour

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Pipeline *extract.Pipeline
	Exams    *exam.Service

	cache store.ReplyCache
}

// NewCompleter returns the configured engine, or nil when no credential is set.
func NewCompleter(cfg *config.Config) resolver.Completer {
	if cfg.APIKey() == "" {
		return nil
	}
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mode, err := mcq.ParseMode(cfg.SegmentMode)
	if err != nil {
		return nil, err
	}
	pdfMode, err := docread.ParsePDFMode(cfg.PDFToText)
	if err != nil {
		return nil, err
	}
	policy, err := resolver.ParsePolicy(cfg.EnrichPolicy)
	if err != nil {
		return nil, err
	}
	driver, err := store.ParseDriver(cfg.CacheDriver)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log}
	engine := NewCompleter(cfg)
	opts := resolver.Options{Timeout: cfg.EnrichTimeout, Policy: policy, Logger: log.Named("resolver")}
	if engine != nil {
		a.cache, err = store.OpenCache(ctx, driver, cfg.CacheDSN, cfg.CacheMaxAge)
		if err != nil {
			return nil, eris.Wrap(err, "open reply cache")
		}
		if a.cache != nil {
			opts.Cache = a.cache
		}
		if repo, ok := a.cache.(*store.ReplyRepo); ok {
			go repo.PurgeEvery(ctx, cachePurgeInterval, log.Named("cache"))
		}
		log.Info("enrichment enabled",
			zap.String("engine", engine.Name()),
			zap.String("model", engine.GetModel()),
			zap.String("policy", string(policy)),
			zap.String("cache", string(driver)))
	} else {
		log.Info("enrichment disabled: no API key for provider", zap.String("provider", cfg.Provider))
	}

	reader := docread.New(pdfMode, log.Named("docread"))
	a.Pipeline = extract.New(reader, resolver.New(engine, opts), mode, log.Named("extract"))
	a.Exams = exam.NewService(exam.NewInMemoryStore(), log.Named("exam"))
	return a, nil
}

func (a *App) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
