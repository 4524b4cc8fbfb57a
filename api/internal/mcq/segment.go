package mcq

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Strategy is the block boundary heuristic used for one document.
type Strategy int

const (
	// NumberPrefixed blocks start at a "<n>." line and run to the next one.
	NumberPrefixed Strategy = iota + 1
	// AnswerMarkerTerminated blocks end at the answer marker that follows every question.
	AnswerMarkerTerminated
)

func (s Strategy) String() string {
	switch s {
	case NumberPrefixed:
		return "number_prefixed"
	case AnswerMarkerTerminated:
		return "answer_marker_terminated"
	default:
		return "unknown"
	}
}

// Mode selects a strategy explicitly or asks for detection.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeNumber Mode = "number"
	ModeAnswer Mode = "answer"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeNumber:
		return ModeNumber, nil
	case ModeAnswer:
		return ModeAnswer, nil
	}
	return "", eris.Errorf("unknown segment mode %q (use auto|number|answer)", s)
}

var (
	numberedLine  = regexp.MustCompile(`(?m)^[ \t]*\d{1,3}\.(?:[ \t]+|$)`)
	// the key letter sits on the marker's line and stands alone
	answerMarker  = regexp.MustCompile(`(?im)\(?\b(?:correct[ \t]+)?answer[ \t]*:[ \t]*\(?[ \t]*([a-z])(?:[ \t]*\))?\.?(?:[ \t]|$)`)
	justifyMarker = regexp.MustCompile(`(?i)\b(?:justification|explanation|rationale)\s*:`)
	justifyLine   = regexp.MustCompile(`(?i)^[ \t]*\(?(?:justification|explanation|rationale)\s*:`)
)

// DetectStrategy prefers answer markers when they occur at least as often as
// numbered lines, which is the shape of documents that key every question inline.
func DetectStrategy(text string) Strategy {
	answers := len(answerMarker.FindAllStringIndex(text, -1))
	numbers := len(numberedLine.FindAllStringIndex(text, -1))
	if answers > 0 && answers >= numbers {
		return AnswerMarkerTerminated
	}
	return NumberPrefixed
}

// Resolve maps a mode to the strategy used for text.
func (m Mode) Resolve(text string) Strategy {
	switch m {
	case ModeNumber:
		return NumberPrefixed
	case ModeAnswer:
		return AnswerMarkerTerminated
	default:
		return DetectStrategy(text)
	}
}

// Segment splits text into candidate question blocks. Empty blocks are discarded
// and document order is kept.
func Segment(text string, s Strategy) []string {
	text = normalizeNewlines(text)
	if s == AnswerMarkerTerminated {
		return segmentByAnswer(text)
	}
	return segmentByNumber(text)
}

func segmentByNumber(text string) []string {
	locs := numberedLine.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nonEmpty([]string{text})
	}
	// text before the first numbered line is a title or instructions
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, text[loc[0]:end])
	}
	return nonEmpty(blocks)
}

type segState int

const (
	inQuestion segState = iota
	afterAnswer
	inJustification
)

func segmentByAnswer(text string) []string {
	var (
		blocks []string
		cur    []string
		state  = inQuestion
	)
	flush := func() {
		blocks = append(blocks, strings.Join(cur, "\n"))
		cur = cur[:0]
		state = inQuestion
	}
	for _, line := range strings.Split(text, "\n") {
		blank := strings.TrimSpace(line) == ""
		switch state {
		case afterAnswer:
			if blank {
				continue
			}
			if justifyLine.MatchString(line) {
				cur = append(cur, line)
				state = inJustification
				continue
			}
			flush()
		case inJustification:
			if blank {
				flush()
				continue
			}
			if !numberedLine.MatchString(line) {
				cur = append(cur, line)
				continue
			}
			flush()
		}
		cur = append(cur, line)
		if answerMarker.MatchString(line) {
			state = afterAnswer
		}
	}
	flush()
	if len(blocks) > 0 {
		blocks[0] = dropPreamble(blocks[0])
	}
	return nonEmpty(blocks)
}

// dropPreamble cuts a title or instructions off the first block when a numbered
// question line follows them.
func dropPreamble(block string) string {
	if loc := numberedLine.FindStringIndex(block); loc != nil && loc[0] > 0 {
		return block[loc[0]:]
	}
	return block
}

func nonEmpty(blocks []string) []string {
	out := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			out = append(out, strings.TrimSpace(b))
		}
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
