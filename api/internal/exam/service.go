package exam

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/mcq"
)

const DefaultTitle = "Untitled Exam"

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Create stores a new exam. The question list is copied.
func (s *Service) Create(title, source string, questions []mcq.Question) (Exam, error) {
	if len(questions) == 0 {
		return Exam{}, ErrEmptyExam
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	e := Exam{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    source,
		Questions: mcq.Clone(questions),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutExam(e); err != nil {
		return Exam{}, eris.Wrap(err, "put exam")
	}
	s.log.Info("exam created", zap.String("exam_id", e.ID), zap.Int("questions", len(e.Questions)), zap.String("source", source))
	return e, nil
}

func (s *Service) Exam(id string) (Exam, error) { return s.store.GetExam(id) }

func (s *Service) Result(id string) (Result, error) { return s.store.GetResult(id) }

// Start opens a session on an existing exam.
func (s *Service) Start(examID string) (Session, Exam, error) {
	e, err := s.store.GetExam(examID)
	if err != nil {
		return Session{}, Exam{}, err
	}
	sess := Session{ID: uuid.NewString(), ExamID: examID, StartedAt: s.now().UTC()}
	if err := s.store.PutSession(sess); err != nil {
		return Session{}, Exam{}, eris.Wrap(err, "put session")
	}
	return sess, e, nil
}

// Submit scores answers for the exam opened by sessionID and closes the session.
// A missing exam, missing session or a session for another exam is ErrNotFound.
func (s *Service) Submit(examID, sessionID string, answers map[string]string) (Result, error) {
	e, err := s.store.GetExam(examID)
	if err != nil {
		return Result{}, err
	}
	sess, err := s.store.GetSession(sessionID)
	if err != nil {
		return Result{}, err
	}
	if sess.ExamID != examID {
		return Result{}, eris.Wrapf(ErrNotFound, "session %q is for exam %q", sessionID, sess.ExamID)
	}

	res, err := Score(e.Questions, answers)
	if err != nil {
		return Result{}, err
	}
	res.ID = uuid.NewString()
	res.ExamID = examID
	res.CreatedAt = s.now().UTC()
	if err := s.store.PutResult(res); err != nil {
		return Result{}, eris.Wrap(err, "put result")
	}
	if err := s.store.DeleteSession(sessionID); err != nil {
		s.log.Warn("delete session", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.log.Info("exam submitted",
		zap.String("exam_id", examID),
		zap.String("result_id", res.ID),
		zap.Int("score", res.Score),
		zap.Int("total", res.Total))
	return res, nil
}
