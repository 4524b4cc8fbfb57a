package mcq

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "a) text", "B. text", "(c) text"; any letter so that e) and later terminate d)
	optionLine   = regexp.MustCompile(`^[ \t]*\(?([A-Za-z])[.)][ \t]+(.*)$`)
	stemNumber   = regexp.MustCompile(`(?i)^\s*(?:q(?:uestion)?\.?\s*)?(\d{1,3})[.)](?:\s+|$)`)
	inlineFirst  = regexp.MustCompile(`(?i)(?:^|\s)\(?a[.)]\s+`)
	inlineMarker = map[string]*regexp.Regexp{
		"b": regexp.MustCompile(`(?i)\s\(?b[.)]\s+`),
		"c": regexp.MustCompile(`(?i)\s\(?c[.)]\s+`),
		"d": regexp.MustCompile(`(?i)\s\(?d[.)]\s+`),
	}
)

// Numbering records which question_number policy a document ended up with.
type Numbering string

const (
	NumberingExplicit   Numbering = "explicit"
	NumberingSequential Numbering = "sequential"
)

// Report describes one Segment+Parse run.
type Report struct {
	Strategy   Strategy  `json:"strategy"`
	Blocks     int       `json:"blocks"`
	Dropped    int       `json:"dropped"`
	Unresolved int       `json:"unresolved"`
	Numbering  Numbering `json:"numbering"`
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "number_prefixed":
		*s = NumberPrefixed
	case "answer_marker_terminated":
		*s = AnswerMarkerTerminated
	default:
		*s = 0
	}
	return nil
}

// Draft is a parsed block before document-wide numbering is applied.
type Draft struct {
	Question
	// Explicit is the number printed in front of the stem, empty when none.
	Explicit string
	// Unresolved is set when an inline answer named a letter that is not an option.
	Unresolved bool
}

// Parse segments text with the strategy chosen by mode and parses every block.
func Parse(text string, mode Mode) ([]Question, Report) {
	s := mode.Resolve(text)
	blocks := Segment(text, s)
	qs, rep := ParseBlocks(blocks)
	rep.Strategy = s
	return qs, rep
}

// ParseBlocks parses blocks in order, drops those without a stem or options and
// assigns question numbers with a single policy for the whole document.
func ParseBlocks(blocks []string) ([]Question, Report) {
	rep := Report{Blocks: len(blocks)}
	drafts := make([]Draft, 0, len(blocks))
	for _, b := range blocks {
		d, ok := ParseBlock(b)
		if !ok {
			rep.Dropped++
			continue
		}
		if d.Unresolved {
			rep.Unresolved++
		}
		drafts = append(drafts, d)
	}

	rep.Numbering = NumberingExplicit
	seen := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		if d.Explicit == "" || seen[d.Explicit] {
			rep.Numbering = NumberingSequential
			break
		}
		seen[d.Explicit] = true
	}

	out := make([]Question, 0, len(drafts))
	for i, d := range drafts {
		q := d.Question
		if rep.Numbering == NumberingExplicit {
			q.Number = Number(d.Explicit)
		} else {
			q.Number = Number(strconv.Itoa(i + 1))
		}
		out = append(out, q)
	}
	return out, rep
}

// ParseBlock extracts stem, options, inline answer and justification from one block.
// ok is false when the block has no stem or no options.
func ParseBlock(block string) (Draft, bool) {
	block = normalizeNewlines(block)
	body, answer, justification := splitKey(block)

	stem, optLines := splitStem(body)
	if optLines == nil {
		return Draft{}, false
	}

	var d Draft
	if m := stemNumber.FindStringSubmatch(stem); m != nil {
		n, _ := strconv.Atoi(m[1])
		d.Explicit = strconv.Itoa(n)
		stem = stem[len(m[0]):]
	}
	d.Text = collapse(stem)
	d.Options = parseOptions(optLines)
	if d.Text == "" || len(d.Options) == 0 {
		return Draft{}, false
	}
	d.Justification = justification
	if answer != "" {
		if d.Options.Has(answer) {
			d.CorrectAnswer = Answer(answer)
		} else {
			d.Unresolved = true
		}
	}
	return d, true
}

// splitKey cuts the answer marker and justification off the end of a block.
func splitKey(block string) (body, answer, justification string) {
	aLoc := answerMarker.FindStringSubmatchIndex(block)
	jLoc := justifyMarker.FindStringIndex(block)

	cut := len(block)
	if aLoc != nil {
		cut = aLoc[0]
		answer = strings.ToLower(block[aLoc[2]:aLoc[3]])
	}
	if jLoc != nil {
		if jLoc[0] < cut {
			cut = jLoc[0]
		}
		end := len(block)
		if aLoc != nil && aLoc[0] > jLoc[0] {
			end = aLoc[0]
		}
		justification = collapse(block[jLoc[1]:end])
	}
	return block[:cut], answer, justification
}

// splitStem returns the stem text and the lines holding options.
func splitStem(body string) (string, []string) {
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		if m := optionLine.FindStringSubmatch(ln); m != nil && ValidLetter(strings.ToLower(m[1])) {
			return strings.Join(lines[:i], "\n"), lines[i:]
		}
	}
	// options run inline: "Which? a) x b) y c) z"
	if loc := inlineFirst.FindStringIndex(body); loc != nil {
		rest := strings.TrimLeft(body[loc[0]:], " \t\n")
		if inlineMarker["b"].MatchString(rest) {
			return body[:loc[0]], strings.Split(rest, "\n")
		}
	}
	return body, nil
}

func parseOptions(lines []string) Options {
	var opts Options
	cur := -1
	for _, ln := range lines {
		if m := optionLine.FindStringSubmatch(ln); m != nil {
			l := strings.ToLower(m[1])
			if ValidLetter(l) && !opts.Has(l) {
				opts = append(opts, Option{Letter: l, Text: m[2]})
				cur = len(opts) - 1
			} else {
				cur = -1
			}
			continue
		}
		if t := strings.TrimSpace(ln); cur >= 0 && t != "" {
			opts[cur].Text += " " + t
		}
	}
	opts = splitInline(opts)

	out := opts[:0]
	for _, o := range opts {
		o.Text = collapse(o.Text)
		if o.Text != "" {
			out = append(out, o)
		}
	}
	return out
}

// splitInline breaks "3 b) 4 c) 5" into separate options when the next letters
// appear in sequence and are not already present.
func splitInline(in Options) Options {
	seen := make(map[string]bool, len(in))
	for _, o := range in {
		seen[o.Letter] = true
	}
	out := make(Options, 0, len(Letters))
	for _, o := range in {
		for {
			next := nextLetter(o.Letter)
			if next == "" || seen[next] {
				break
			}
			loc := inlineMarker[next].FindStringIndex(o.Text)
			if loc == nil {
				break
			}
			out = append(out, Option{Letter: o.Letter, Text: o.Text[:loc[0]]})
			seen[next] = true
			o = Option{Letter: next, Text: o.Text[loc[1]:]}
		}
		out = append(out, o)
	}
	return out
}

func nextLetter(l string) string {
	for i, x := range Letters {
		if x == l && i+1 < len(Letters) {
			return Letters[i+1]
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
