package wingman

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/model"
)

// MaxOptions is the number of reply options the persona is asked for. Extra
// options returned by the model are dropped.
const MaxOptions = 3

type ReplyGenerator struct {
	model  model.Generator
	gate   *SafetyGate
	logger *slog.Logger
}

func NewReplyGenerator(gen model.Generator, gate *SafetyGate, logger *slog.Logger) *ReplyGenerator {
	return &ReplyGenerator{model: gen, gate: gate, logger: logger}
}

// BuildRequest assembles the persona prompt, the optional screenshot, and the
// optional text quoted verbatim. It does not check that either is present.
func BuildRequest(text string, img *domain.Image) model.Request {
	req := model.Request{System: PersonaPrompt, Schema: model.RepliesSchema}
	hasText := strings.TrimSpace(text) != ""
	if img != nil {
		req.Parts = append(req.Parts, model.Image(img.Data, img.MIMEType))
	}
	if hasText {
		req.Parts = append(req.Parts, model.Text(QuoteMessage(text)))
	}
	if img != nil && !hasText {
		req.Parts = append(req.Parts, model.Text(ImageOnlyPrompt))
	}
	return req
}

// Generate screens text, asks the model for reply options and validates the
// answer. ContentRejected from the gate is returned as is; every other
// failure is GenerationFailed.
func (g *ReplyGenerator) Generate(ctx context.Context, text string, img *domain.Image) (*domain.Replies, error) {
	if err := g.gate.Check(ctx, text); err != nil {
		return nil, err
	}

	g.logger.Info("reply generation started", "has_text", text != "", "has_image", img != nil)
	raw, err := g.model.Generate(ctx, BuildRequest(text, img))
	if err != nil {
		g.logger.Error("reply generation failed", "error", err)
		return nil, domain.NewGenerationFailed("", err)
	}

	var replies domain.Replies
	if err := model.DecodeJSON(raw, &replies); err != nil {
		g.logger.Error("reply generation returned bad JSON", "error", err)
		return nil, domain.NewGenerationFailed("", err)
	}

	replies.Options = nonEmptyOptions(replies.Options)
	if len(replies.Options) == 0 {
		return nil, domain.NewGenerationFailed(domain.MsgSpeechless, errors.New("model returned no options"))
	}
	if len(replies.Options) > MaxOptions {
		g.logger.Warn("model returned extra options, truncating", "count", len(replies.Options))
		replies.Options = replies.Options[:MaxOptions]
	}

	g.logger.Info("reply generation complete", "options", len(replies.Options))
	return &replies, nil
}

// nonEmptyOptions drops options with no reply text.
func nonEmptyOptions(in []domain.ReplyOption) []domain.ReplyOption {
	out := make([]domain.ReplyOption, 0, len(in))
	for _, o := range in {
		if strings.TrimSpace(o.Reply) == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}
