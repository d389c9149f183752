package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/wingman/internal/model"
)

// maxTokens comfortably covers three short chat replies or a transcription.
const maxTokens = 1024

type Generator struct {
	model  string
	client *anthropic.Client
}

func New(apiKey, modelName string, opts ...anthropic.ClientOption) *Generator {
	return &Generator{
		model:  modelName,
		client: anthropic.NewClient(apiKey, opts...),
	}
}

// buildMessages converts the request parts into a single user turn.
func buildMessages(req model.Request) []anthropic.Message {
	content := make([]anthropic.MessageContent, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			content = append(content, anthropic.NewImageMessageContent(
				anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(p.MIMEType),
					base64.StdEncoding.EncodeToString(p.Image),
				),
			))
			continue
		}
		if p.Text != "" {
			content = append(content, anthropic.NewTextMessageContent(p.Text))
		}
	}
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

// systemPrompt appends the response schema to the system instruction. The
// Messages API has no schema-constrained mode, so the model is told instead.
func systemPrompt(req model.Request) (string, error) {
	if req.Schema == nil {
		return req.System, nil
	}
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object only, no prose and no code fences, matching this JSON schema:\n")
	b.Write(schema)
	return b.String(), nil
}

func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	system, err := systemPrompt(req)
	if err != nil {
		return "", err
	}

	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		System:    system,
		Messages:  buildMessages(req),
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type != anthropic.MessagesContentTypeText {
			continue
		}
		if text := strings.TrimSpace(c.GetText()); text != "" {
			return text, nil
		}
	}
	return "", model.ErrEmptyResponse
}

// normaliseMIME maps MIME types to the values the Anthropic API accepts:
// jpeg, png, gif and webp. Anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
