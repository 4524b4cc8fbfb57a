package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/exam"
	"mcq-exam/api/internal/extract"
)

// Sender is the part of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, data []byte, kind docread.Kind) (extract.Extraction, error)
}

type Router struct {
	Bot       Sender
	Extractor Extractor
	Exams     *exam.Service
	Log       *zap.Logger

	// MaxUpload bounds accepted document size in bytes.
	MaxUpload int64

	// ExtractTimeout bounds one document, enrichment included.
	ExtractTimeout time.Duration

	quizzes quizState
}

const helpText = "Send me a PDF or TXT file with multiple-choice questions and I will quiz you on it.\n" +
	"The file caption becomes the exam title.\n\nCommands: /start, /quit"

func (r *Router) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "quit":
		if _, ok := r.quizzes.take(cid); ok {
			r.send(cid, "Quiz abandoned. Send another file to start again.")
			return
		}
		r.send(cid, "No quiz in progress.")
	default:
		r.send(cid, "Unknown command. "+helpText)
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := *upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case msg.Document != nil:
		r.acceptDocument(msg)
	case strings.TrimSpace(msg.Text) != "":
		if _, ok := r.quizzes.get(msg.Chat.ID); ok {
			r.send(msg.Chat.ID, "Use the buttons under the question to answer, or /quit.")
			return
		}
		r.send(msg.Chat.ID, helpText)
	}
}

func (r *Router) send(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessage) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := r.Bot.Send(msg); err != nil {
			r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Error: %v", err))
}
