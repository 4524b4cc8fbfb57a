package exam

import (
	"sync"

	"github.com/rotisserie/eris"

	"mcq-exam/api/internal/mcq"
)

var ErrNotFound = eris.New("not found")

// Store is owned by the application process; nothing survives a restart.
type Store interface {
	PutExam(e Exam) error
	GetExam(id string) (Exam, error)
	PutSession(s Session) error
	GetSession(id string) (Session, error)
	DeleteSession(id string) error
	PutResult(r Result) error
	GetResult(id string) (Result, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	sessions map[string]Session
	results  map[string]Result
}

func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		sessions: map[string]Session{},
		results:  map[string]Result{},
	}
}

func (m *memoryStore) PutExam(e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, eris.Wrapf(ErrNotFound, "exam %q", id)
	}
	e.Questions = mcq.Clone(e.Questions)
	return e, nil
}

func (m *memoryStore) PutSession(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memoryStore) GetSession(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, eris.Wrapf(ErrNotFound, "session %q", id)
	}
	return s, nil
}

func (m *memoryStore) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memoryStore) PutResult(r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.ID] = r
	return nil
}

func (m *memoryStore) GetResult(id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, eris.Wrapf(ErrNotFound, "result %q", id)
	}
	return r, nil
}
