package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	index, letter, ok := parseAnswerData(cb.Data)
	if !ok {
		return
	}
	q, ok := r.quizzes.get(cid)
	if !ok {
		r.send(cid, "This quiz is no longer active. Send a file to start a new one.")
		return
	}

	q.mu.Lock()
	if index != q.index {
		// stale button from an earlier question
		q.mu.Unlock()
		return
	}
	cur := q.exam.Questions[q.index]
	q.answers[string(cur.Number)] = letter
	q.index++
	done := q.index >= len(q.exam.Questions)
	q.mu.Unlock()

	edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, _ = r.Bot.Send(edit)
	r.send(cid, "Your answer: "+strings.ToUpper(letter))

	if !done {
		r.sendQuestion(cid, q)
		return
	}
	r.finish(cid)
}

func (r *Router) finish(chatID int64) {
	q, ok := r.quizzes.take(chatID)
	if !ok {
		return
	}
	res, err := r.Exams.Submit(q.exam.ID, q.session, q.answers)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.log().Info("quiz finished",
		zap.Int64("chat_id", chatID),
		zap.String("result_id", res.ID),
		zap.Int("score", res.Score),
		zap.Int("total", res.Total))
	r.send(chatID, formatSummary(q.exam.Title, res))
}
