package wingman

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/model"
)

func newTestReplyGenerator(m *stubModel) *ReplyGenerator {
	return NewReplyGenerator(m, NewSafetyGate(m, testLogger()), testLogger())
}

func TestGenerateTextOnly(t *testing.T) {
	m := &stubModel{reply: threeOptions, verdict: verdictClean}

	replies, err := newTestReplyGenerator(m).Generate(context.Background(), "Ki koro?", nil)
	require.NoError(t, err)
	require.Len(t, replies.Options, 3)
	assert.Equal(t, "Playful", replies.Options[0].Title)
	assert.Equal(t, "Sweet", replies.Options[1].Title)
	assert.Equal(t, "Cool", replies.Options[2].Title)

	calls := m.otherCalls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, PersonaPrompt, req.System)
	assert.Equal(t, model.RepliesSchema, req.Schema)
	require.Len(t, req.Parts, 1)
	assert.False(t, req.Parts[0].IsImage())
	assert.Equal(t, `Her message text: "Ki koro?"`, req.Parts[0].Text)
}

func TestGenerateImageOnly(t *testing.T) {
	m := &stubModel{reply: threeOptions, verdict: verdictClean}

	_, err := newTestReplyGenerator(m).Generate(context.Background(), "", screenshot)
	require.NoError(t, err)

	assert.Empty(t, m.moderationCalls(), "images are not screened here")
	calls := m.otherCalls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Parts, 2)
	assert.True(t, calls[0].Parts[0].IsImage())
	assert.Equal(t, ImageOnlyPrompt, calls[0].Parts[1].Text)
}

func TestBuildRequestBlankTextWithImage(t *testing.T) {
	req := BuildRequest("  \n\t ", screenshot)

	require.Len(t, req.Parts, 2)
	assert.True(t, req.Parts[0].IsImage())
	assert.Equal(t, ImageOnlyPrompt, req.Parts[1].Text, "blank text falls back to the image-only instruction")
	assert.NotContains(t, req.PromptText(), "Her message text")
}

func TestGenerateTextAndImage(t *testing.T) {
	m := &stubModel{reply: threeOptions, verdict: verdictClean}

	_, err := newTestReplyGenerator(m).Generate(context.Background(), "কি করো?", screenshot)
	require.NoError(t, err)

	parts := m.otherCalls()[0].Parts
	require.Len(t, parts, 2)
	assert.True(t, parts[0].IsImage())
	assert.Equal(t, `Her message text: "কি করো?"`, parts[1].Text)
}

func TestGenerateRejected(t *testing.T) {
	m := &stubModel{reply: threeOptions, verdict: verdictHarassment}

	_, err := newTestReplyGenerator(m).Generate(context.Background(), "something nasty", nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindContentRejected, domain.KindOf(err))
	assert.NotEqual(t, domain.MsgGenerationFailed, domain.UserMessage(err))
	assert.Empty(t, m.otherCalls(), "rejected text must not reach generation")
}

func TestGenerateModerationFailsOpen(t *testing.T) {
	m := &stubModel{reply: threeOptions, verdictErr: errors.New("dial tcp: timeout")}

	replies, err := newTestReplyGenerator(m).Generate(context.Background(), "Ki koro?", nil)
	require.NoError(t, err)
	assert.Len(t, replies.Options, 3)
	assert.Len(t, m.otherCalls(), 1)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		message string
	}{
		{name: "transport error", err: errors.New("503"), message: domain.MsgGenerationFailed},
		{name: "bad json", reply: "Here are some ideas!", message: domain.MsgGenerationFailed},
		{name: "empty options", reply: `{"options":[]}`, message: domain.MsgSpeechless},
		{name: "missing options", reply: `{}`, message: domain.MsgSpeechless},
		{name: "blank replies", reply: `{"options":[{"title":"Cool","reply":"  "}]}`, message: domain.MsgSpeechless},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubModel{reply: tt.reply, replyErr: tt.err, verdict: verdictClean}

			replies, err := newTestReplyGenerator(m).Generate(context.Background(), "Ki koro?", nil)
			require.Error(t, err)
			assert.Nil(t, replies)
			assert.Equal(t, domain.KindGenerationFailed, domain.KindOf(err))
			assert.Equal(t, tt.message, domain.UserMessage(err))
		})
	}
}

func TestGenerateTruncatesExtraOptions(t *testing.T) {
	m := &stubModel{verdict: verdictClean, reply: `{"options":[
		{"title":"A","reply":"a"},{"title":"B","reply":"b"},
		{"title":"C","reply":"c"},{"title":"D","reply":"d"}]}`}

	replies, err := newTestReplyGenerator(m).Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Len(t, replies.Options, MaxOptions)
	assert.Equal(t, "C", replies.Options[2].Title)
}

func TestGenerateAcceptsFewerOptions(t *testing.T) {
	m := &stubModel{verdict: verdictClean, reply: `{"options":[{"title":"Cool","reply":"Chill"}]}`}

	replies, err := newTestReplyGenerator(m).Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Len(t, replies.Options, 1)
}
