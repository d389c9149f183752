package wingman

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/model"
)

// Extractor transcribes the counterpart's latest message from a screenshot
// and screens it with the safety gate.
type Extractor struct {
	model  model.Generator
	gate   *SafetyGate
	logger *slog.Logger
}

func NewExtractor(gen model.Generator, gate *SafetyGate, logger *slog.Logger) *Extractor {
	return &Extractor{model: gen, gate: gate, logger: logger}
}

func (e *Extractor) ExtractText(ctx context.Context, img *domain.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", domain.NewExtractionFailed(errors.New("no image data"))
	}

	e.logger.Info("text extraction started", "mime_type", img.MIMEType, "bytes", len(img.Data))
	text, err := e.model.Generate(ctx, model.Request{
		Parts: []model.Part{
			model.Image(img.Data, img.MIMEType),
			model.Text(ExtractPrompt),
		},
	})
	if err != nil && !errors.Is(err, model.ErrEmptyResponse) {
		e.logger.Error("text extraction failed", "error", err)
		return "", domain.NewExtractionFailed(err)
	}
	e.logger.Info("text extraction complete", "chars", len(text))

	if err := e.gate.Check(ctx, text); err != nil {
		return "", err
	}
	return text, nil
}
