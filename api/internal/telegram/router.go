package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageRunes = 4000

// Bot is the subset of *tgbotapi.BotAPI used by the router.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Analyzer answers the question on a raw image.
type Analyzer interface {
	AnalyzeBytes(ctx context.Context, raw []byte, mimeHint string) (string, error)
}

type Router struct {
	Bot      Bot
	Analyzer Analyzer
	Log      *zap.Logger

	// MaxImageBytes caps downloads; zero means no cap.
	MaxImageBytes int64
	// MaxConcurrent caps updates handled at once by Poll; zero means 4.
	MaxConcurrent int
	HTTPClient    *http.Client
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.handleCommand(cid, msg.Command())
		return
	}

	switch {
	case len(msg.Photo) > 0:
		ph := largestPhoto(msg.Photo)
		r.solvePhoto(ctx, msg, ph.FileID, "")
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.solvePhoto(ctx, msg, msg.Document.FileID, msg.Document.MimeType)
	case msg.Text != "":
		r.send(cid, "Send me a photo of a multiple-choice question and I will reply with the correct option.")
	}
}

func (r *Router) handleCommand(cid int64, cmd string) {
	switch cmd {
	case "start", "help":
		r.send(cid, "Send a photo of a multiple-choice question (A/B/C/D).\n"+
			"I will reply with the correct option and a short explanation.\nCommands: /health")
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) solvePhoto(ctx context.Context, msg *tgbotapi.Message, fileID, mimeHint string) {
	cid := msg.Chat.ID
	log := r.logger().With(zap.Int64("chat_id", cid), zap.Int("message_id", msg.MessageID))

	r.send(cid, "Processing image…")

	fileURL, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		log.Warn("get file url failed", zap.Error(err))
		r.sendError(cid, errors.New("could not fetch the photo, please send it again"))
		return
	}
	img, err := download(ctx, r.httpClient(), fileURL, r.MaxImageBytes)
	if err != nil {
		log.Warn("download failed", zap.Error(err))
		r.sendError(cid, errors.New("could not download the photo, please send it again"))
		return
	}

	answer, err := r.Analyzer.AnalyzeBytes(ctx, img, mimeHint)
	if err != nil {
		log.Error("analyze failed", zap.Error(err))
		r.sendError(cid, err)
		return
	}
	r.sendAnswer(msg, answer)
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger().Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendAnswer(msg *tgbotapi.Message, answer string) {
	if strings.TrimSpace(answer) == "" {
		answer = "(empty answer)"
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, truncate(answer, maxMessageRunes))
	out.ReplyToMessageID = msg.MessageID
	if _, err := r.Bot.Send(out); err != nil {
		r.logger().Warn("send failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

func (r *Router) sendError(chatID int64, err error) {
	r.send(chatID, "⚠️ "+truncate(err.Error(), maxMessageRunes))
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) maxConcurrent() int {
	if r.MaxConcurrent > 0 {
		return r.MaxConcurrent
	}
	return defaultMaxConcurrent
}

func (r *Router) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[len(sizes)-1]
	for _, p := range sizes {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "…"
}
