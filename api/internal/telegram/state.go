package telegram

import (
	"sync"

	"mcq-exam/api/internal/exam"
)

// quiz is one chat's progress through an exam.
type quiz struct {
	mu      sync.Mutex
	exam    exam.Exam
	session string
	index   int
	answers map[string]string
}

type quizState struct {
	m sync.Map // chatID -> *quiz
}

func (s *quizState) put(chatID int64, q *quiz) { s.m.Store(chatID, q) }

func (s *quizState) get(chatID int64) (*quiz, bool) {
	v, ok := s.m.Load(chatID)
	if !ok {
		return nil, false
	}
	return v.(*quiz), true
}

func (s *quizState) take(chatID int64) (*quiz, bool) {
	v, ok := s.m.LoadAndDelete(chatID)
	if !ok {
		return nil, false
	}
	return v.(*quiz), true
}
