package wingman

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/model"
)

// SafetyGate asks the model whether text breaks content policy.
//
// The gate fails open: if the verdict call itself fails (network, malformed
// JSON) the text is allowed through and the failure is logged. Only a
// positive verdict blocks.
type SafetyGate struct {
	model  model.Generator
	logger *slog.Logger
}

func NewSafetyGate(gen model.Generator, logger *slog.Logger) *SafetyGate {
	return &SafetyGate{model: gen, logger: logger}
}

// Check returns a ContentRejected *domain.Error when text is flagged, nil
// otherwise. Blank text is never sent to the model.
func (g *SafetyGate) Check(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw, err := g.model.Generate(ctx, model.Request{
		System: ModerationPrompt,
		Parts:  []model.Part{model.Text(text)},
		Schema: model.VerdictSchema,
	})
	if err != nil {
		g.logger.Warn("moderation call failed, allowing content", "error", err)
		return nil
	}

	var verdict domain.SafetyVerdict
	if err := model.DecodeJSON(raw, &verdict); err != nil {
		g.logger.Warn("moderation verdict malformed, allowing content", "error", err)
		return nil
	}

	if verdict.Inappropriate {
		g.logger.Info("content rejected by moderation", "reason", verdict.Reason)
		return domain.NewContentRejected(verdict.Reason)
	}
	return nil
}
