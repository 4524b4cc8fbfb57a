package handle

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/exam"
	"mcq-exam/api/internal/extract"
	"mcq-exam/api/internal/mcq"
)

const (
	msgNoQuestions   = "No MCQs found in the uploaded document. Please check the format."
	msgBadType       = "Invalid file type. Please upload a PDF or TXT file."
	msgExamNotFound  = "Exam not found"
	msgNoSession     = "Exam not found or session expired"
	msgResultMissing = "Results not found"
)

type uploadForm struct {
	Title    string `validate:"max=200"`
	Filename string `validate:"required,max=255"`
}

type createResponse struct {
	Exam        exam.Exam        `json:"exam"`
	Report      mcq.Report       `json:"report"`
	Enriched    bool             `json:"enriched"`
	Diagnostics []mcq.Diagnostic `json:"diagnostics,omitempty"`
}

// CreateExam accepts a multipart upload in "document" (or "pdf_file") plus "exam_title".
func (h *Handle) CreateExam(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		code := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			code = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, code, errorBody{Error: "bad upload: " + err.Error()})
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		file, header, err = r.FormFile("pdf_file")
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing file field \"document\""})
		return
	}
	defer file.Close()

	form := uploadForm{
		Title:    strings.TrimSpace(r.FormValue("exam_title")),
		Filename: header.Filename,
	}
	if err := h.validate.Struct(form); err != nil {
		h.writeError(w, r, err, "invalid form: "+err.Error())
		return
	}
	kind, err := docread.KindFromName(form.Filename)
	if err != nil {
		h.writeError(w, r, err, msgBadType)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, eris.Wrap(err, "read upload"), "")
		return
	}

	start := time.Now()
	ex, err := h.extractor.Extract(r.Context(), data, kind)
	if err != nil {
		h.writeError(w, r, err, msgNoQuestions)
		return
	}
	e, err := h.exams.Create(form.Title, form.Filename, ex.Questions)
	if err != nil {
		h.writeError(w, r, err, msgNoQuestions)
		return
	}
	h.log.Info("upload processed",
		zap.String("exam_id", e.ID),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(data)),
		zap.Bool("enriched", ex.Enriched),
		zap.Duration("elapsed", time.Since(start)))

	w.Header().Set("Location", "/exams/"+e.ID)
	writeJSON(w, http.StatusCreated, createResponse{
		Exam:        e,
		Report:      ex.Report,
		Enriched:    ex.Enriched,
		Diagnostics: ex.Diagnostics,
	})
}

// GetExam is the preview, answers included.
func (h *Handle) GetExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.Exam(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, r, err, msgExamNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type startResponse struct {
	SessionID string    `json:"session_id"`
	Exam      exam.Exam `json:"exam"`
}

// StartExam opens a session and returns the questions without answers.
func (h *Handle) StartExam(w http.ResponseWriter, r *http.Request) {
	sess, e, err := h.exams.Start(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, r, err, msgExamNotFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, startResponse{SessionID: sess.ID, Exam: e.Public()})
}

// SubmitExam scores q_<n> form fields for the session in the cookie.
func (h *Handle) SubmitExam(w http.ResponseWriter, r *http.Request) {
	examID := chi.URLParam(r, "examID")
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		h.writeError(w, r, eris.Wrap(exam.ErrNotFound, "no session cookie"), msgNoSession)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad form: " + err.Error()})
		return
	}
	res, err := h.exams.Submit(examID, c.Value, exam.AnswersFromForm(r.Form))
	if err != nil {
		h.writeError(w, r, err, msgNoSession)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.Header().Set("Location", "/results/"+res.ID)
	writeJSON(w, http.StatusCreated, res)
}

type resultResponse struct {
	exam.Result
	ExamTitle string `json:"exam_title"`
}

func (h *Handle) GetResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.exams.Result(chi.URLParam(r, "resultID"))
	if err != nil {
		h.writeError(w, r, err, msgResultMissing)
		return
	}
	out := resultResponse{Result: res}
	if e, err := h.exams.Exam(res.ExamID); err == nil {
		out.ExamTitle = e.Title
	}
	writeJSON(w, http.StatusOK, out)
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

var _ Extractor = (*extract.Pipeline)(nil)
