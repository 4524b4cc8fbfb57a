package exam

import (
	"math"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"mcq-exam/api/internal/mcq"
)

var ErrEmptyExam = eris.New("exam has no questions")

// FormPrefix prefixes answer fields in a submission form: q_<question_number>.
const FormPrefix = "q_"

// Score grades answers (question_number -> letter) against questions.
func Score(questions []mcq.Question, answers map[string]string) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrEmptyExam
	}
	res := Result{
		Answers: make(map[string]string, len(answers)),
		Details: make([]Detail, 0, len(questions)),
		Total:   len(questions),
	}
	for k, v := range answers {
		res.Answers[k] = v
	}
	for _, q := range questions {
		user := mcq.NormalizeLetter(answers[string(q.Number)])
		d := Detail{
			QuestionNumber: q.Number,
			QuestionText:   q.Text,
			Options:        q.Options,
			UserAnswer:     user,
			CorrectAnswer:  q.CorrectAnswer,
			Justification:  q.Justification,
			Unscoreable:    !q.Scoreable(),
		}
		d.IsCorrect = q.Scoreable() && user == string(q.CorrectAnswer)
		if d.IsCorrect {
			res.Score++
		}
		res.Details = append(res.Details, d)
	}
	res.Percentage = Percentage(res.Score, res.Total)
	return res, nil
}

// Percentage is correct/total*100 rounded to two decimals.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

// AnswersFromForm collects q_<n> fields. The first value of each key wins.
func AnswersFromForm(form url.Values) map[string]string {
	out := make(map[string]string)
	for k, vs := range form {
		num, ok := strings.CutPrefix(k, FormPrefix)
		if !ok || num == "" || len(vs) == 0 {
			continue
		}
		out[num] = vs[0]
	}
	return out
}
