package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vbonduro/wingman/internal/model"
)

const DefaultModel = "gemini-2.5-flash"

type Generator struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

func New(apiKey, modelName string, opts ...option.ClientOption) *Generator {
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	return &Generator{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(modelName),
		opts:   opts,
	}
}

func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer func() { _ = cl.Close() }()

	m := cl.GenerativeModel(g.model)
	configure(m, req)

	resp, err := m.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		if reason := blockReason(resp); reason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", reason)
		}
		return "", model.ErrEmptyResponse
	}
	return text, nil
}

// configure applies the system instruction and, when a schema is set, the
// JSON response mode.
func configure(m *genai.GenerativeModel, req model.Request) {
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Schema != nil {
		m.GenerationConfig.ResponseMIMEType = "application/json"
		m.GenerationConfig.ResponseSchema = toSchema(req.Schema)
	}
}

func buildParts(req model.Request) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsImage() {
			parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Image})
			continue
		}
		if p.Text != "" {
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts
}

func toSchema(s *model.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

func toType(t model.SchemaType) genai.Type {
	switch t {
	case model.TypeObject:
		return genai.TypeObject
	case model.TypeArray:
		return genai.TypeArray
	case model.TypeBoolean:
		return genai.TypeBoolean
	case model.TypeString:
		return genai.TypeString
	default:
		return genai.TypeUnspecified
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	if resp.PromptFeedback.BlockReason == genai.BlockReasonUnspecified {
		return ""
	}
	return resp.PromptFeedback.BlockReason.String()
}
