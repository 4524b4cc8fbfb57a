package mcq

import (
	"reflect"
	"testing"
)

const scenarioA = `1. What is 2+2?
A. 3
B. 4
C. 5
D. 6
ANSWER: B
`

func TestParseScenarioA(t *testing.T) {
	qs, rep := Parse(scenarioA, ModeAuto)
	if rep.Strategy != AnswerMarkerTerminated {
		t.Fatalf("strategy = %v, want %v", rep.Strategy, AnswerMarkerTerminated)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions, want 1: %+v", len(qs), qs)
	}
	q := qs[0]
	if q.Number != "1" {
		t.Errorf("number = %q, want 1", q.Number)
	}
	if q.Text != "What is 2+2?" {
		t.Errorf("text = %q", q.Text)
	}
	if q.CorrectAnswer != "b" {
		t.Errorf("answer = %q, want b", q.CorrectAnswer)
	}
	want := Options{{"a", "3"}, {"b", "4"}, {"c", "5"}, {"d", "6"}}
	if !reflect.DeepEqual(q.Options, want) {
		t.Errorf("options = %+v, want %+v", q.Options, want)
	}
}

func TestParseNumberPrefixed(t *testing.T) {
	text := `Sample exam
Read every question carefully.

1. Capital of France?
a) Paris
b) Rome
c) Madrid
d) Berlin
2. Largest planet
in the solar system?
a) Mars
b) Jupiter
   the gas giant
c) Venus
d) Earth
3. Not a question at all
`
	qs, rep := Parse(text, ModeAuto)
	if rep.Strategy != NumberPrefixed {
		t.Fatalf("strategy = %v", rep.Strategy)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if rep.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", rep.Dropped)
	}
	if rep.Numbering != NumberingExplicit {
		t.Errorf("numbering = %v", rep.Numbering)
	}
	if qs[1].Number != "2" || qs[1].Text != "Largest planet in the solar system?" {
		t.Errorf("q2 = %+v", qs[1])
	}
	if got, _ := qs[1].Options.Get("b"); got != "Jupiter the gas giant" {
		t.Errorf("multi-line option = %q", got)
	}
	for _, q := range qs {
		if q.CorrectAnswer != NoAnswer {
			t.Errorf("q%s answer = %q, want none", q.Number, q.CorrectAnswer)
		}
	}
}

func TestParseAnswerMarkerWithJustification(t *testing.T) {
	text := `Which gas do plants absorb?
a) Oxygen
b) Carbon dioxide
c) Nitrogen
d) Helium
ANSWER: B
Justification: Photosynthesis consumes CO2
and releases oxygen.

Which is a prime number?
a) 4
b) 6
c) 7
d) 8
Correct Answer: (c)
`
	qs, rep := Parse(text, ModeAuto)
	if rep.Strategy != AnswerMarkerTerminated {
		t.Fatalf("strategy = %v", rep.Strategy)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions: %+v", len(qs), qs)
	}
	if rep.Numbering != NumberingSequential {
		t.Errorf("numbering = %v, want sequential", rep.Numbering)
	}
	if qs[0].Number != "1" || qs[1].Number != "2" {
		t.Errorf("numbers = %q, %q", qs[0].Number, qs[1].Number)
	}
	if qs[0].Justification != "Photosynthesis consumes CO2 and releases oxygen." {
		t.Errorf("justification = %q", qs[0].Justification)
	}
	if qs[0].CorrectAnswer != "b" || qs[1].CorrectAnswer != "c" {
		t.Errorf("answers = %q, %q", qs[0].CorrectAnswer, qs[1].CorrectAnswer)
	}
	if qs[1].Justification != "" {
		t.Errorf("q2 justification = %q, want empty", qs[1].Justification)
	}
}

func TestParseBlock(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		ok       bool
		explicit string
		text     string
		letters  []string
		answer   Answer
	}{
		{
			name:     "inline options",
			block:    "7. Pick one: a) red b) green c) blue d) black",
			ok:       true,
			explicit: "7",
			text:     "Pick one:",
			letters:  []string{"a", "b", "c", "d"},
		},
		{
			name:    "fifth option ignored",
			block:   "Q?\na) 1\nb) 2\nc) 3\nd) 4\ne) 5",
			ok:      true,
			text:    "Q?",
			letters: []string{"a", "b", "c", "d"},
		},
		{
			name:    "parenthesized letters",
			block:   "Which?\n(a) one\n(b) two\nAnswer: (b)",
			ok:      true,
			text:    "Which?",
			letters: []string{"a", "b"},
			answer:  "b",
		},
		{
			name:  "no options",
			block: "12. Just some prose without choices",
		},
		{
			name:  "no stem",
			block: "a) alone\nb) together",
		},
		{
			name:     "answer not an option",
			block:    "3. Two options only\na) x\nb) y\nANSWER: D",
			ok:       true,
			explicit: "3",
			text:     "Two options only",
			letters:  []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := ParseBlock(tt.block)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (%+v)", ok, tt.ok, d)
			}
			if !ok {
				return
			}
			if d.Explicit != tt.explicit {
				t.Errorf("explicit = %q, want %q", d.Explicit, tt.explicit)
			}
			if d.Text != tt.text {
				t.Errorf("text = %q, want %q", d.Text, tt.text)
			}
			if got := d.Options.Letters(); !reflect.DeepEqual(got, tt.letters) {
				t.Errorf("letters = %v, want %v", got, tt.letters)
			}
			if d.CorrectAnswer != tt.answer {
				t.Errorf("answer = %q, want %q", d.CorrectAnswer, tt.answer)
			}
		})
	}
}

func TestParseBlocksNumberingNeverMixes(t *testing.T) {
	blocks := []string{
		"5. First?\na) x\nb) y",
		"Second without number?\na) x\nb) y",
		"9. Third?\na) x\nb) y",
	}
	qs, rep := ParseBlocks(blocks)
	if rep.Numbering != NumberingSequential {
		t.Fatalf("numbering = %v", rep.Numbering)
	}
	for i, want := range []Number{"1", "2", "3"} {
		if qs[i].Number != want {
			t.Errorf("q[%d] = %q, want %q", i, qs[i].Number, want)
		}
	}

	dup := []string{"1. A?\na) x\nb) y", "1. B?\na) x\nb) y"}
	qs, rep = ParseBlocks(dup)
	if rep.Numbering != NumberingSequential || qs[1].Number != "2" {
		t.Errorf("duplicates not renumbered: %v %+v", rep.Numbering, qs)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	text := scenarioA + "\n2. Second?\nA. x\nB. y\nANSWER: A\n"
	first, _ := Parse(text, ModeAuto)
	second, _ := Parse(text, ModeAuto)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n%+v\n%+v", first, second)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n\n", "no questions here"} {
		qs, _ := Parse(text, ModeAuto)
		if len(qs) != 0 {
			t.Errorf("Parse(%q) = %+v, want none", text, qs)
		}
	}
}

func TestUniqueNumbersAndAlphabet(t *testing.T) {
	text := ""
	for _, n := range []string{"1", "2", "3", "4"} {
		text += n + ". Question " + n + "?\na) one\nb) two\nc) three\nd) four\n"
	}
	qs, _ := Parse(text, ModeNumber)
	if len(qs) != 4 {
		t.Fatalf("got %d questions", len(qs))
	}
	seen := map[Number]bool{}
	for _, q := range qs {
		if seen[q.Number] {
			t.Errorf("duplicate number %q", q.Number)
		}
		seen[q.Number] = true
		if len(q.Options) > 4 {
			t.Errorf("q%s has %d options", q.Number, len(q.Options))
		}
		for _, l := range q.Options.Letters() {
			if !ValidLetter(l) {
				t.Errorf("q%s has letter %q", q.Number, l)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, "number": ModeNumber, " answer ": ModeAnswer} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("pages"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseStemEndingInAnswerColon(t *testing.T) {
	text := "1. Choose the correct answer:\na) 3\nb) 4\nc) 5\nd) 6\n\n2. Pick one\na) x\nb) y\n"
	qs, rep := Parse(text, ModeAuto)
	if rep.Dropped != 0 || len(qs) != 2 {
		t.Fatalf("got %d questions, report %+v", len(qs), rep)
	}
	if qs[0].Text != "Choose the correct answer:" || len(qs[0].Options) != 4 {
		t.Errorf("q1 = %+v", qs[0])
	}
	if qs[0].CorrectAnswer != NoAnswer {
		t.Errorf("q1 answer = %q, want none", qs[0].CorrectAnswer)
	}
}

func TestAnswerMarkerForms(t *testing.T) {
	tests := map[string]string{
		"ANSWER: B":           "b",
		"Correct Answer: (c)": "c",
		"answer:  d.":         "d",
		"(Answer: a)":         "a",
		"Answer: all of them": "",
		"the correct answer:": "",
	}
	for in, want := range tests {
		got := ""
		if m := answerMarker.FindStringSubmatch(in); m != nil {
			got = NormalizeLetter(m[1])
		}
		if got != want {
			t.Errorf("%q: key = %q, want %q", in, got, want)
		}
	}
}

func TestParseAnswerModeDropsPreamble(t *testing.T) {
	text := `Chapter 3 Quiz
Answer every question.

5. What is 2+2?
A. 3
B. 4
ANSWER: B

6. Capital of France?
A. Paris
B. Rome
ANSWER: A
`
	qs, rep := Parse(text, ModeAuto)
	if rep.Strategy != AnswerMarkerTerminated {
		t.Fatalf("strategy = %v", rep.Strategy)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions: %+v", len(qs), qs)
	}
	if rep.Numbering != NumberingExplicit {
		t.Errorf("numbering = %v, want explicit", rep.Numbering)
	}
	if qs[0].Number != "5" || qs[0].Text != "What is 2+2?" {
		t.Errorf("q1 = %q %q", qs[0].Number, qs[0].Text)
	}
	if qs[1].Number != "6" {
		t.Errorf("q2 number = %q", qs[1].Number)
	}
}
