// Package resolver asks a completion service to fill in answer keys and
// justifications, falling back to the heuristic records whenever the reply
// cannot be trusted.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/mcq"
)

// Completer is a text-in, text-out completion service.
type Completer interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache stores raw replies keyed by request hash, engine and model.
type Cache interface {
	Get(ctx context.Context, hash, engine, model string) (string, bool, error)
	Put(ctx context.Context, hash, engine, model, reply string) error
}

type Policy string

const (
	// PolicyMissing calls the service only when some record lacks an answer or justification.
	PolicyMissing Policy = "missing"
	PolicyAlways  Policy = "always"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyMissing, nil
	case PolicyMissing, PolicyAlways:
		return p, nil
	}
	return "", eris.Errorf("unknown enrich policy %q (use missing|always)", s)
}

// Reason explains why an Outcome is or is not enriched.
type Reason string

const (
	ReasonEnriched     Reason = "enriched"
	ReasonDisabled     Reason = "disabled"
	ReasonNoRecords    Reason = "no_records"
	ReasonComplete     Reason = "complete"
	ReasonServiceError Reason = "service_error"
	ReasonTimeout      Reason = "timeout"
	ReasonBadReply     Reason = "bad_reply"
)

// Outcome always carries a usable list: the validated reply when Enriched,
// otherwise the heuristic records unchanged.
type Outcome struct {
	Questions   []mcq.Question   `json:"questions"`
	Enriched    bool             `json:"enriched"`
	Cached      bool             `json:"cached,omitempty"`
	Reason      Reason           `json:"reason"`
	Diagnostics []mcq.Diagnostic `json:"diagnostics,omitempty"`
}

type Options struct {
	Cache   Cache
	Timeout time.Duration
	Policy  Policy
	Logger  *zap.Logger
}

type Resolver struct {
	engine  Completer
	cache   Cache
	timeout time.Duration
	policy  Policy
	log     *zap.Logger
}

// New returns a Resolver. A nil engine disables enrichment.
func New(engine Completer, opt Options) *Resolver {
	r := &Resolver{
		engine:  engine,
		cache:   opt.Cache,
		timeout: opt.Timeout,
		policy:  opt.Policy,
		log:     opt.Logger,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.policy == "" {
		r.policy = PolicyMissing
	}
	return r
}

func (r *Resolver) Enabled() bool { return r != nil && r.engine != nil }

// Resolve calls the service at most once.
func (r *Resolver) Resolve(ctx context.Context, text string, partial []mcq.Question) Outcome {
	fallback := func(reason Reason) Outcome {
		return Outcome{Questions: mcq.Clone(partial), Reason: reason}
	}
	if !r.Enabled() {
		return fallback(ReasonDisabled)
	}
	if len(partial) == 0 {
		return fallback(ReasonNoRecords)
	}
	if r.policy == PolicyMissing && !needsResolution(partial) {
		return fallback(ReasonComplete)
	}

	prompt, err := BuildPrompt(text, partial)
	if err != nil {
		r.log.Warn("build prompt", zap.Error(err))
		return fallback(ReasonServiceError)
	}
	engine, model := r.engine.Name(), r.engine.GetModel()
	hash := requestHash(text, partial)
	log := r.log.With(zap.String("engine", engine), zap.String("model", model), zap.Int("questions", len(partial)))

	reply, cached := r.lookup(ctx, hash, engine, model)
	if !cached {
		cctx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		start := time.Now()
		reply, err = r.engine.Complete(cctx, prompt)
		if err != nil {
			reason := ReasonServiceError
			if errors.Is(cctx.Err(), context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			log.Warn("completion failed, keeping heuristic records", zap.Error(err), zap.String("reason", string(reason)))
			return fallback(reason)
		}
		log.Info("completion done", zap.Duration("elapsed", time.Since(start)), zap.Int("reply_bytes", len(reply)))
	}

	qs, diags, err := mcq.ParseReply(reply)
	if err != nil {
		log.Warn("reply rejected, keeping heuristic records", zap.Error(err), zap.Bool("cached", cached))
		return fallback(ReasonBadReply)
	}
	for _, d := range diags {
		log.Warn("reply record corrected",
			zap.String("question_number", d.QuestionNumber),
			zap.String("field", d.Field),
			zap.String("message", d.Message))
	}
	if !cached && r.cache != nil {
		if err := r.cache.Put(ctx, hash, engine, model, reply); err != nil {
			log.Warn("cache put", zap.Error(err))
		}
	}
	return Outcome{Questions: qs, Enriched: true, Cached: cached, Reason: ReasonEnriched, Diagnostics: diags}
}

func (r *Resolver) lookup(ctx context.Context, hash, engine, model string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	reply, ok, err := r.cache.Get(ctx, hash, engine, model)
	if err != nil {
		r.log.Warn("cache get", zap.Error(err))
		return "", false
	}
	return reply, ok
}

func needsResolution(qs []mcq.Question) bool {
	for _, q := range qs {
		if q.NeedsResolution() {
			return true
		}
	}
	return false
}

func requestHash(text string, partial []mcq.Question) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	b, _ := json.Marshal(partial)
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}
