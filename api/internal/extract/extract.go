// Package extract runs text acquisition, heuristic parsing and optional
// enrichment as one operation whose only failure signal is ErrNoQuestions.
package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/mcq"
	"mcq-exam/api/internal/resolver"
)

// ErrNoQuestions is returned for every failure, including unreadable documents.
var ErrNoQuestions = eris.New("no MCQs found in the uploaded document")

type TextReader interface {
	Read(ctx context.Context, data []byte, kind docread.Kind) (string, error)
}

type Resolver interface {
	Resolve(ctx context.Context, text string, partial []mcq.Question) resolver.Outcome
}

type Extraction struct {
	Questions   []mcq.Question   `json:"questions"`
	Report      mcq.Report       `json:"report"`
	Enriched    bool             `json:"enriched"`
	Reason      resolver.Reason  `json:"enrichment"`
	Diagnostics []mcq.Diagnostic `json:"diagnostics,omitempty"`
}

type Pipeline struct {
	reader   TextReader
	resolver Resolver
	mode     mcq.Mode
	log      *zap.Logger
}

// New builds a pipeline. res may be nil to disable enrichment.
func New(reader TextReader, res Resolver, mode mcq.Mode, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if mode == "" {
		mode = mcq.ModeAuto
	}
	return &Pipeline{reader: reader, resolver: res, mode: mode, log: log}
}

// Extract reads data as kind and returns the final question list.
func (p *Pipeline) Extract(ctx context.Context, data []byte, kind docread.Kind) (ex Extraction, err error) {
	defer p.guard(&ex, &err)
	text, err := p.reader.Read(ctx, data, kind)
	if err != nil {
		p.log.Warn("document could not be read", zap.String("kind", string(kind)), zap.Error(err))
		return Extraction{}, eris.Wrapf(ErrNoQuestions, "read: %v", err)
	}
	return p.ExtractText(ctx, text)
}

// ExtractText runs the pipeline on already acquired text.
func (p *Pipeline) ExtractText(ctx context.Context, text string) (ex Extraction, err error) {
	defer p.guard(&ex, &err)

	qs, rep := mcq.Parse(text, p.mode)
	log := p.log.With(zap.Stringer("strategy", rep.Strategy))
	log.Info("parsed document",
		zap.Int("blocks", rep.Blocks),
		zap.Int("questions", len(qs)),
		zap.Int("dropped", rep.Dropped),
		zap.Int("unresolved", rep.Unresolved),
		zap.String("numbering", string(rep.Numbering)))
	if len(qs) == 0 {
		return Extraction{}, ErrNoQuestions
	}

	ex = Extraction{Questions: qs, Report: rep, Reason: resolver.ReasonDisabled}
	if p.resolver != nil {
		out := p.resolver.Resolve(ctx, text, qs)
		ex.Questions = out.Questions
		ex.Enriched = out.Enriched
		ex.Reason = out.Reason
		ex.Diagnostics = out.Diagnostics
		log.Info("enrichment", zap.String("reason", string(out.Reason)), zap.Bool("cached", out.Cached))
	}
	if len(ex.Questions) == 0 {
		return Extraction{}, ErrNoQuestions
	}
	return ex, nil
}

func (p *Pipeline) guard(ex *Extraction, err *error) {
	if r := recover(); r != nil {
		p.log.Error("extraction panicked", zap.Any("panic", r), zap.Stack("stack"))
		*ex = Extraction{}
		*err = eris.Wrapf(ErrNoQuestions, "panic: %v", r)
	}
}
