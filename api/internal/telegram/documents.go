package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/extract"
)

func (r *Router) acceptDocument(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	kind, err := docread.KindFromName(doc.FileName)
	if err != nil {
		r.send(cid, "Invalid file type. Please send a PDF or TXT file.")
		return
	}
	if r.MaxUpload > 0 && int64(doc.FileSize) > r.MaxUpload {
		r.send(cid, fmt.Sprintf("File is too large (limit %d MB).", r.MaxUpload>>20))
		return
	}
	url, err := r.Bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	data, err := download(url, r.MaxUpload)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.send(cid, "Got it, extracting questions…")

	ctx := context.Background()
	if r.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ExtractTimeout)
		defer cancel()
	}
	ex, err := r.Extractor.Extract(ctx, data, kind)
	if err != nil {
		if eris.Is(err, extract.ErrNoQuestions) {
			r.send(cid, "No MCQs found in the uploaded file. Please check the format.")
			return
		}
		r.SendError(cid, err)
		return
	}
	e, err := r.Exams.Create(msg.Caption, doc.FileName, ex.Questions)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	sess, _, err := r.Exams.Start(e.ID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.log().Info("quiz started", zap.Int64("chat_id", cid), zap.String("exam_id", e.ID), zap.Int("questions", len(e.Questions)))

	q := &quiz{exam: e, session: sess.ID, answers: map[string]string{}}
	if old, ok := r.quizzes.take(cid); ok {
		r.log().Info("replacing unfinished quiz", zap.Int64("chat_id", cid), zap.String("exam_id", old.exam.ID))
	}
	r.quizzes.put(cid, q)
	r.send(cid, fmt.Sprintf("%s: %d questions.", e.Title, len(e.Questions)))
	r.sendQuestion(cid, q)
}

func (r *Router) sendQuestion(chatID int64, q *quiz) {
	qs := q.exam.Questions
	parts := splitMessage(formatQuestion(q.index, len(qs), qs[q.index]), maxMessage)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		// the keyboard goes under the options, which come last
		if i == len(parts)-1 {
			msg.ReplyMarkup = makeAnswerKeyboard(q.index, qs[q.index])
		}
		if _, err := r.Bot.Send(msg); err != nil {
			r.log().Warn("telegram send question", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func download(url string, limit int64) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("download status %d: %s", resp.StatusCode, string(b))
	}
	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, eris.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
