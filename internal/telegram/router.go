// Package telegram drives the wingman pipeline from a Telegram chat: a photo
// is captured and answered, text is answered, /clear starts over.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vbonduro/wingman/internal/capture"
	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/pipeline"
	"github.com/vbonduro/wingman/internal/session"
)

const (
	msgWelcome = "Send me a screenshot of her message, or just type what she said, and I'll suggest three replies.\n/clear starts over."
	msgCleared = "Cleared. Send a new screenshot or message."
	msgUnknown = "Unknown command. Try /start or /clear."
)

// bot is the part of *tgbotapi.BotAPI the router uses.
type bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Router struct {
	bot      bot
	sessions *session.Registry
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

func NewRouter(b bot, reg *session.Registry, maxBytes int64, logger *slog.Logger) *Router {
	return &Router{
		bot:      b,
		sessions: reg,
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: maxBytes,
		logger:   logger.With("surface", "telegram"),
	}
}

// Run long-polls for updates until ctx is done. Each update is handled on
// its own goroutine so a slow model call never stalls polling.
func (r *Router) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := r.bot.GetUpdatesChan(u)
	r.logger.Info("telegram polling started")

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.HandleUpdate(ctx, upd)
			}()
		}
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	cid := msg.Chat.ID
	sess := r.sessions.GetOrCreate(chatKey(cid))

	switch {
	case msg.IsCommand():
		r.handleCommand(cid, msg.Command(), sess)
	case len(msg.Photo) > 0:
		r.acceptImage(ctx, cid, msg.Photo[len(msg.Photo)-1].FileID, sess)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.acceptImage(ctx, cid, msg.Document.FileID, sess)
	case strings.TrimSpace(msg.Text) != "":
		sess.SetText(msg.Text)
		r.generate(ctx, cid, sess)
	}
}

func (r *Router) handleCommand(cid int64, cmd string, sess *pipeline.Session) {
	switch cmd {
	case "start", "help":
		r.send(cid, msgWelcome)
	case "clear":
		sess.Clear()
		r.send(cid, msgCleared)
	default:
		r.send(cid, msgUnknown)
	}
}

// acceptImage downloads the file, runs it through capture and extraction
// and, if that worked, asks for replies straight away.
func (r *Router) acceptImage(ctx context.Context, cid int64, fileID string, sess *pipeline.Session) {
	r.typing(cid)
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		r.logger.Error("get file url failed", "chat_id", cid, "error", err)
		r.send(cid, domain.MsgExtractionFailed)
		return
	}
	body, err := r.download(ctx, url)
	if err != nil {
		r.logger.Error("download photo failed", "chat_id", cid, "error", err)
		r.send(cid, domain.MsgExtractionFailed)
		return
	}
	defer func() { _ = body.Close() }()

	if err := sess.Capture(ctx, capture.NewFileSource(body, r.maxBytes)); err != nil {
		r.reportError(cid, err)
		return
	}
	r.generate(ctx, cid, sess)
}

func (r *Router) generate(ctx context.Context, cid int64, sess *pipeline.Session) {
	r.typing(cid)
	if err := sess.RequestReplies(ctx); err != nil {
		r.reportError(cid, err)
		return
	}
	snap := sess.Snapshot()
	if snap.Replies == nil {
		return
	}
	for i, opt := range snap.Replies.Options {
		r.send(cid, formatOption(i, opt))
	}
}

func (r *Router) reportError(cid int64, err error) {
	if errors.Is(err, pipeline.ErrSuperseded) {
		return
	}
	r.logger.Info("reporting error to chat", "chat_id", cid, "kind", domain.KindOf(err))
	r.send(cid, domain.UserMessage(err))
}

// formatOption renders one reply so the reply itself sits on its own line,
// ready to long-press and copy.
func formatOption(i int, opt domain.ReplyOption) string {
	return fmt.Sprintf("%d. %s\n\n%s", i+1, opt.Title, opt.Reply)
}

func chatKey(cid int64) string {
	return fmt.Sprintf("telegram:%d", cid)
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func (r *Router) typing(chatID int64) {
	if _, err := r.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		r.logger.Debug("send chat action failed", "chat_id", chatID, "error", err)
	}
}

func (r *Router) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return resp.Body, nil
}
