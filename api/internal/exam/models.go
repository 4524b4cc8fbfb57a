// Package exam stores extracted exams, runs quiz sessions and scores submissions.
package exam

import (
	"time"

	"mcq-exam/api/internal/mcq"
)

type Exam struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Source    string         `json:"source"`
	Questions []mcq.Question `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

// Session is the exam a taker currently has open.
type Session struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	StartedAt time.Time `json:"started_at"`
}

type Detail struct {
	QuestionNumber mcq.Number  `json:"question_number"`
	QuestionText   string      `json:"question_text"`
	Options        mcq.Options `json:"options"`
	UserAnswer     string      `json:"user_answer"`
	CorrectAnswer  mcq.Answer  `json:"correct_answer"`
	IsCorrect      bool        `json:"is_correct"`
	Justification  string      `json:"justification"`
	// Unscoreable is set when the stored answer is null or not an option key.
	Unscoreable bool `json:"unscoreable,omitempty"`
}

type Result struct {
	ID         string            `json:"id"`
	ExamID     string            `json:"exam_id"`
	Answers    map[string]string `json:"answers"`
	Details    []Detail          `json:"details"`
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Percentage float64           `json:"percentage"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Public returns a copy of the exam with answers and justifications removed.
func (e Exam) Public() Exam {
	out := e
	out.Questions = mcq.Clone(e.Questions)
	for i := range out.Questions {
		out.Questions[i].CorrectAnswer = mcq.NoAnswer
		out.Questions[i].Justification = ""
	}
	return out
}
