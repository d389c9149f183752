package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/model"
	"github.com/vbonduro/wingman/internal/pipeline"
	"github.com/vbonduro/wingman/internal/session"
	"github.com/vbonduro/wingman/internal/wingman"
)

var minimalJPEG = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 508)...)

const threeOptions = `{"options":[
	{"title":"Playful","reply":"Tomake niye vabtesi"},
	{"title":"Sweet","reply":"Tomar kotha mone portesilo"},
	{"title":"Cool","reply":"Chill kortesi, tumi?"}]}`

// fakeBot records outgoing messages and serves file URLs from fileURL.
type fakeBot struct {
	mu      sync.Mutex
	sent    []string
	actions int
	fileURL string
	updates chan tgbotapi.Update
	stopped bool
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(_ tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(_ string) (string, error) {
	return b.fileURL, nil
}

func (b *fakeBot) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBot) Sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...)
}

type cannedModel struct {
	extracted string
	verdict   string
}

func (m *cannedModel) Generate(_ context.Context, req model.Request) (string, error) {
	switch req.Schema {
	case model.VerdictSchema:
		return m.verdict, nil
	case model.RepliesSchema:
		return threeOptions, nil
	default:
		return m.extracted, nil
	}
}

func newTestRouter(t *testing.T, m model.Generator) (*Router, *fakeBot, *session.Registry) {
	t.Helper()
	logger := slog.Default()
	gate := wingman.NewSafetyGate(m, logger)
	ext := wingman.NewExtractor(m, gate, logger)
	gen := wingman.NewReplyGenerator(m, gate, logger)
	reg := session.NewRegistry(func(id string) *pipeline.Session {
		return pipeline.NewSession(id, ext, gen, logger, pipeline.Options{})
	}, time.Hour, logger)

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(minimalJPEG)
	}))
	t.Cleanup(files.Close)

	b := &fakeBot{fileURL: files.URL + "/photo.jpg", updates: make(chan tgbotapi.Update)}
	return NewRouter(b, reg, 1<<20, logger), b, reg
}

func textUpdate(cid int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: cid}, Text: text}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func photoUpdate(cid int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: cid},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}}
}

func TestTextGetsThreeReplies(t *testing.T) {
	r, b, reg := newTestRouter(t, &cannedModel{verdict: `{"inappropriate": false}`})

	r.HandleUpdate(context.Background(), textUpdate(42, "Ki koro?"))

	sent := b.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "1. Playful\n\nTomake niye vabtesi", sent[0])
	assert.Contains(t, sent[2], "Cool")

	sess, ok := reg.Get(chatKey(42))
	require.True(t, ok)
	assert.Equal(t, "Ki koro?", sess.Snapshot().Text)
}

func TestPhotoIsCapturedThenAnswered(t *testing.T) {
	r, b, reg := newTestRouter(t, &cannedModel{extracted: "Ki koro?", verdict: `{"inappropriate": false}`})

	r.HandleUpdate(context.Background(), photoUpdate(7))

	assert.Len(t, b.Sent(), 3)
	sess, _ := reg.Get(chatKey(7))
	snap := sess.Snapshot()
	assert.True(t, snap.HasImage())
	assert.Equal(t, "Ki koro?", snap.Text)
}

func TestRejectedPhotoReportsReason(t *testing.T) {
	r, b, _ := newTestRouter(t, &cannedModel{extracted: "nasty", verdict: `{"inappropriate": true, "reason": "harassment"}`})

	r.HandleUpdate(context.Background(), photoUpdate(7))

	sent := b.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NewContentRejected("harassment").Message, sent[0])
}

func TestCommands(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "/start", want: msgWelcome},
		{text: "/clear", want: msgCleared},
		{text: "/nope", want: msgUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, b, _ := newTestRouter(t, &cannedModel{})
			r.HandleUpdate(context.Background(), textUpdate(1, tt.text))
			assert.Equal(t, []string{tt.want}, b.Sent())
		})
	}
}

func TestClearResetsChatSession(t *testing.T) {
	r, _, reg := newTestRouter(t, &cannedModel{verdict: `{"inappropriate": false}`})
	r.HandleUpdate(context.Background(), textUpdate(3, "Ki koro?"))

	r.HandleUpdate(context.Background(), textUpdate(3, "/clear"))

	sess, _ := reg.Get(chatKey(3))
	snap := sess.Snapshot()
	assert.Empty(t, snap.Text)
	assert.Nil(t, snap.Replies)
}

func TestIgnoresUpdatesWithoutMessage(t *testing.T) {
	r, b, reg := newTestRouter(t, &cannedModel{})
	r.HandleUpdate(context.Background(), tgbotapi.Update{})
	assert.Empty(t, b.Sent())
	assert.Zero(t, reg.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	r, b, _ := newTestRouter(t, &cannedModel{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	b.updates <- textUpdate(1, "/start")
	assert.Eventually(t, func() bool { return len(b.Sent()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.True(t, b.stopped)
}
