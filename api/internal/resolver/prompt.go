package resolver

import (
	"encoding/json"
	"strings"

	"mcq-exam/api/internal/mcq"
)

const instructions = `You are given a block of text containing multiple-choice questions. The questions and options have already been extracted, but the correct answers and justifications are missing or incomplete.

Please do the following:
- Match each question with its correct answer (only one correct choice per question).
- Provide a brief justification for each answer.
- Do not rewrite the questions or options.
- Return your response only as a JSON array with the following fields per question:
  - question_number (string)
  - question_text (string)
  - options (object with keys "a", "b", "c", "d")
  - correct_answer (one of "a", "b", "c", or "d")
  - justification (string)

Respond ONLY with valid JSON. No explanation, no markdown, no prose.`

// BuildPrompt renders the completion request for text and its parsed records.
func BuildPrompt(text string, partial []mcq.Question) (string, error) {
	recs, err := json.MarshalIndent(partial, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nHere is the raw document text:\n")
	b.WriteString(text)
	b.WriteString("\n\nHere are the parsed MCQs:\n")
	b.Write(recs)
	b.WriteByte('\n')
	return b.String(), nil
}
