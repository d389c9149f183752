package model

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned by backends when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator is a single multimodal request/response call to a hosted model.
// When req.Schema is set the returned text is JSON conforming to it.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Request struct {
	System string
	Parts  []Part
	Schema *Schema
}

// Part is either text or an inline image.
type Part struct {
	Text     string
	Image    []byte
	MIMEType string
}

func (p Part) IsImage() bool { return len(p.Image) > 0 }

func Text(s string) Part { return Part{Text: s} }

func Image(data []byte, mimeType string) Part {
	return Part{Image: data, MIMEType: mimeType}
}

// PromptText joins the text parts of req, separated by blank lines. Backends
// without native part lists send this as the prompt.
func (r Request) PromptText() string {
	var out string
	for _, p := range r.Parts {
		if p.IsImage() || p.Text == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += p.Text
	}
	return out
}

// Images returns the image parts of req in order.
func (r Request) Images() []Part {
	var out []Part
	for _, p := range r.Parts {
		if p.IsImage() {
			out = append(out, p)
		}
	}
	return out
}
