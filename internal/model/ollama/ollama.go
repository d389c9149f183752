package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/wingman/internal/model"
)

type Generator struct {
	host   string
	model  string
	client *http.Client
}

func New(host, modelName string) *Generator {
	return &Generator{
		host:   strings.TrimRight(host, "/"),
		model:  modelName,
		client: &http.Client{},
	}
}

type generateRequest struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	System string          `json:"system,omitempty"`
	Images []string        `json:"images,omitempty"`
	Format json.RawMessage `json:"format,omitempty"`
	Stream bool            `json:"stream"`
}

func (g *Generator) Generate(ctx context.Context, req model.Request) (string, error) {
	body := generateRequest{
		Model:  g.model,
		Prompt: req.PromptText(),
		System: req.System,
	}
	for _, img := range req.Images() {
		body.Images = append(body.Images, base64.StdEncoding.EncodeToString(img.Image))
	}
	if req.Schema != nil {
		format, err := json.Marshal(req.Schema)
		if err != nil {
			return "", fmt.Errorf("failed to marshal schema: %w", err)
		}
		body.Format = format
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(respBody.Response)
	if text == "" {
		return "", model.ErrEmptyResponse
	}
	return text, nil
}
