package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mcq-exam/api/internal/exam"
	"mcq-exam/api/internal/mcq"
)

const maxMessage = 3900

// answer buttons carry "ans:<question index>:<letter>"
func makeAnswerKeyboard(index int, q mcq.Question) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(q.Options))
	for _, o := range q.Options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(o.Letter), answerData(index, o.Letter)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func answerData(index int, letter string) string {
	return "ans:" + strconv.Itoa(index) + ":" + letter
}

func parseAnswerData(data string) (int, string, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "ans" {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 || !mcq.ValidLetter(parts[2]) {
		return 0, "", false
	}
	return n, parts[2], true
}

func formatQuestion(index, total int, q mcq.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d (#%s)\n\n%s\n", index+1, total, q.Number, q.Text)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "\n%s) %s", strings.ToUpper(o.Letter), o.Text)
	}
	return b.String()
}

func formatSummary(title string, res exam.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nScore: %d/%d (%.2f%%)\n", title, res.Score, res.Total, res.Percentage)
	for _, d := range res.Details {
		mark := "✅"
		if !d.IsCorrect {
			mark = "❌"
		}
		correct := "unknown"
		if d.CorrectAnswer != mcq.NoAnswer {
			correct = strings.ToUpper(string(d.CorrectAnswer))
		}
		user := d.UserAnswer
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(&b, "\n%s #%s: your answer %s, correct %s", mark, d.QuestionNumber, strings.ToUpper(user), correct)
		if d.Justification != "" {
			fmt.Fprintf(&b, "\n   %s", d.Justification)
		}
	}
	return b.String()
}

// splitMessage cuts text into chunks of at most n bytes, preferring line breaks.
func splitMessage(text string, n int) []string {
	if len(text) <= n {
		return []string{text}
	}
	var out []string
	for len(text) > n {
		cut := strings.LastIndexByte(text[:n], '\n')
		if cut <= 0 {
			cut = n
			// do not split a UTF-8 sequence
			for cut > 0 && text[cut]&0xC0 == 0x80 {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
