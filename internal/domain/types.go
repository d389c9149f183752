package domain

import "strings"

type ImageSource string

const (
	SourceFile   ImageSource = "file"
	SourceCamera ImageSource = "camera"
)

// Image is a captured screenshot or camera frame held in memory.
type Image struct {
	Data     []byte
	MIMEType string
	Source   ImageSource
}

// InputState is what the user has given the wingman so far.
type InputState struct {
	Text  string
	Image *Image
}

// Ready reports whether there is enough input to ask for replies.
func (s InputState) Ready() bool {
	return strings.TrimSpace(s.Text) != "" || s.Image != nil
}

type ReplyOption struct {
	Title string `json:"title"`
	Reply string `json:"reply"`
}

// Replies is the decoded model answer. Options are ordered playful, sweet, cool.
type Replies struct {
	Options []ReplyOption `json:"options"`
}

type SafetyVerdict struct {
	Inappropriate bool   `json:"inappropriate"`
	Reason        string `json:"reason,omitempty"`
}

type Status int

const (
	StatusIdle Status = iota
	StatusExtractingText
	StatusGenerating
)

func (s Status) String() string {
	switch s {
	case StatusExtractingText:
		return "extracting_text"
	case StatusGenerating:
		return "generating"
	default:
		return "idle"
	}
}

// Busy reports whether a model call is in flight.
func (s Status) Busy() bool {
	return s != StatusIdle
}
