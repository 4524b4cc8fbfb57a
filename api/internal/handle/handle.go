package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/exam"
	"mcq-exam/api/internal/extract"
)

const SessionCookie = "mcq_session"

type Extractor interface {
	Extract(ctx context.Context, data []byte, kind docread.Kind) (extract.Extraction, error)
}

type Handle struct {
	extractor Extractor
	exams     *exam.Service
	maxUpload int64
	validate  *validator.Validate
	log       *zap.Logger
}

func New(extractor Extractor, exams *exam.Service, maxUpload int64, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handle{
		extractor: extractor,
		exams:     exams,
		maxUpload: maxUpload,
		validate:  validator.New(),
		log:       log,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes; msg overrides the client text.
func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code := http.StatusInternalServerError
	switch {
	case eris.Is(err, extract.ErrNoQuestions), eris.Is(err, docread.ErrUnsupportedKind), eris.Is(err, exam.ErrEmptyExam):
		code = http.StatusBadRequest
	case eris.Is(err, exam.ErrNotFound):
		code = http.StatusNotFound
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		code = http.StatusBadRequest
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	if code >= 500 {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.log.Info("request rejected", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: msg})
}
