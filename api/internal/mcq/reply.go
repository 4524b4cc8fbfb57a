package mcq

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrBadReply means a completion reply could not be used as a question list.
var ErrBadReply = eris.New("reply is not a usable question array")

var codeFence = regexp.MustCompile("(?im)^```(?:json)?|```$")

// StripCodeFences removes Markdown fences (optionally tagged json) around a reply.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(s), ""))
}

// Diagnostic is a non-fatal correction applied while validating a reply.
type Diagnostic struct {
	QuestionNumber string `json:"question_number"`
	Field          string `json:"field"`
	Message        string `json:"message"`
}

// ParseReply decodes a completion reply into validated questions. Any error wraps
// ErrBadReply and means the whole reply must be discarded.
//
// Answers outside a–d, or naming a letter the record has no option for, are set to
// null and reported. Option keys are lowercased; keys outside a–d are dropped.
func ParseReply(reply string) ([]Question, []Diagnostic, error) {
	cleaned := StripCodeFences(reply)
	if cleaned == "" {
		return nil, nil, eris.Wrap(ErrBadReply, "empty reply")
	}
	var qs []Question
	if err := json.Unmarshal([]byte(cleaned), &qs); err != nil {
		return nil, nil, eris.Wrapf(ErrBadReply, "decode: %v", err)
	}
	if len(qs) == 0 {
		return nil, nil, eris.Wrap(ErrBadReply, "no questions in reply")
	}

	seen := make(map[Number]bool, len(qs))
	for i, q := range qs {
		if q.Number == "" {
			return nil, nil, eris.Wrapf(ErrBadReply, "record %d has no question_number", i)
		}
		if seen[q.Number] {
			return nil, nil, eris.Wrapf(ErrBadReply, "duplicate question_number %q", q.Number)
		}
		seen[q.Number] = true
	}

	var diags []Diagnostic
	for i := range qs {
		diags = append(diags, normalize(&qs[i])...)
	}
	return qs, diags, nil
}

func normalize(q *Question) []Diagnostic {
	var diags []Diagnostic
	num := string(q.Number)

	opts := make(Options, 0, len(q.Options))
	for _, o := range q.Options {
		l := NormalizeLetter(o.Letter)
		if !ValidLetter(l) || opts.Has(l) {
			diags = append(diags, Diagnostic{QuestionNumber: num, Field: "options", Message: "dropped option key " + quote(o.Letter)})
			continue
		}
		opts = append(opts, Option{Letter: l, Text: strings.TrimSpace(o.Text)})
	}
	q.Options = opts

	a := NormalizeLetter(string(q.CorrectAnswer))
	switch {
	case a == "":
		diags = append(diags, Diagnostic{QuestionNumber: num, Field: "correct_answer", Message: "missing correct_answer"})
		q.CorrectAnswer = NoAnswer
	case !ValidLetter(a):
		diags = append(diags, Diagnostic{QuestionNumber: num, Field: "correct_answer", Message: "invalid correct_answer " + quote(string(q.CorrectAnswer))})
		q.CorrectAnswer = NoAnswer
	case !q.Options.Has(a):
		diags = append(diags, Diagnostic{QuestionNumber: num, Field: "correct_answer", Message: "correct_answer " + quote(a) + " is not an option"})
		q.CorrectAnswer = NoAnswer
	default:
		q.CorrectAnswer = Answer(a)
	}
	q.Justification = strings.TrimSpace(q.Justification)
	return diags
}

func quote(s string) string { return `"` + s + `"` }
