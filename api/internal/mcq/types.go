// Package mcq turns loosely formatted multiple-choice text into question records
// and validates question lists returned by an external completion service.
package mcq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Letters is the option alphabet. Anything outside it is ignored.
var Letters = []string{"a", "b", "c", "d"}

// ValidLetter reports whether l is one of Letters (already normalized).
func ValidLetter(l string) bool {
	switch l {
	case "a", "b", "c", "d":
		return true
	}
	return false
}

// NormalizeLetter trims and lowercases a submitted or parsed option letter.
func NormalizeLetter(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type Option struct {
	Letter string
	Text   string
}

// Options keeps document order. It is encoded as a JSON object
// ({"a": "...", "b": "..."}) with keys in insertion order.
type Options []Option

func (o Options) Get(letter string) (string, bool) {
	for _, opt := range o {
		if opt.Letter == letter {
			return opt.Text, true
		}
	}
	return "", false
}

func (o Options) Has(letter string) bool {
	_, ok := o.Get(letter)
	return ok
}

func (o Options) Letters() []string {
	out := make([]string, 0, len(o))
	for _, opt := range o {
		out = append(out, opt.Letter)
	}
	return out
}

func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Letter)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Options) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.Errorf("options: expected object, got %v", tok)
	}
	out := Options{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		text := ""
		switch x := v.(type) {
		case nil:
		case string:
			text = x
		default:
			text = fmt.Sprint(x)
		}
		out = append(out, Option{Letter: key, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// Answer is an option letter; the zero value means "unresolved" and encodes as null.
type Answer string

const NoAnswer Answer = ""

func (a Answer) MarshalJSON() ([]byte, error) {
	if a == NoAnswer {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*a = NoAnswer
	case string:
		*a = Answer(x)
	default:
		// kept verbatim so validation can report it
		*a = Answer(fmt.Sprint(x))
	}
	return nil
}

// Number is the question identifier. Completion services sometimes emit it as a
// JSON number, so both forms are accepted.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*n = ""
	case string:
		*n = Number(strings.TrimSpace(x))
	case json.Number:
		*n = Number(x.String())
	default:
		return eris.Errorf("question_number: unsupported value %v", x)
	}
	return nil
}

type Question struct {
	Number        Number  `json:"question_number"`
	Text          string  `json:"question_text"`
	Options       Options `json:"options"`
	CorrectAnswer Answer  `json:"correct_answer"`
	Justification string  `json:"justification"`
}

// Scoreable reports whether the record carries an answer that names one of its options.
func (q Question) Scoreable() bool {
	a := string(q.CorrectAnswer)
	return ValidLetter(a) && q.Options.Has(a)
}

// NeedsResolution reports whether an answer or justification is missing.
func (q Question) NeedsResolution() bool {
	return q.CorrectAnswer == NoAnswer || strings.TrimSpace(q.Justification) == ""
}

// Clone returns a deep copy so callers can hand lists across component boundaries.
func Clone(in []Question) []Question {
	if in == nil {
		return nil
	}
	out := make([]Question, len(in))
	for i, q := range in {
		q.Options = append(Options(nil), q.Options...)
		out[i] = q
	}
	return out
}
