package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vbonduro/wingman/internal/domain"
)

// DefaultMaxBytes caps a screenshot or camera frame.
const DefaultMaxBytes = 20 * 1024 * 1024 // 20 MB

const (
	msgUnsupportedImage = "Unsupported image format. Upload a JPEG, PNG, GIF or WebP screenshot."
	msgImageTooLarge    = "That screenshot is too large."
	msgEmptyImage       = "The screenshot is empty."
)

// Source produces one image per capture. Reset is the orchestrator's command
// to forget whatever the source holds, so the next capture starts clean.
type Source interface {
	Acquire(ctx context.Context) (*domain.Image, error)
	Reset()
}

// Camera client errors reported by the page.
const (
	CameraErrUnavailable      = "unavailable"
	CameraErrPermissionDenied = "permission_denied"
)

var ErrReleased = errors.New("capture source already released")

// FileSource wraps an image chosen through a file picker or sent as a chat
// attachment.
type FileSource struct {
	mu       sync.Mutex
	r        io.Reader
	maxBytes int64
}

func NewFileSource(r io.Reader, maxBytes int64) *FileSource {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileSource{r: r, maxBytes: maxBytes}
}

func (s *FileSource) Acquire(ctx context.Context) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r == nil {
		return nil, ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(s.r, s.maxBytes+1))
	s.r = nil
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return newImage(data, domain.SourceFile, s.maxBytes)
}

func (s *FileSource) Reset() {
	s.mu.Lock()
	s.r = nil
	s.mu.Unlock()
}

// CameraSource wraps a still frame taken from the page's live camera
// preview, or the error the page hit while opening the camera.
type CameraSource struct {
	mu        sync.Mutex
	frame     string
	clientErr string
	maxBytes  int64
	released  bool
}

func NewCameraSource(frameDataURL, clientErr string, maxBytes int64) *CameraSource {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &CameraSource{frame: frameDataURL, clientErr: clientErr, maxBytes: maxBytes}
}

// Acquire returns the frame and releases the source; a camera source yields
// at most one image.
func (s *CameraSource) Acquire(ctx context.Context) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, ErrReleased
	}
	defer s.release()

	switch s.clientErr {
	case "":
	case CameraErrPermissionDenied:
		return nil, domain.NewPermissionDenied(errors.New("camera permission denied by user"))
	default:
		return nil, domain.NewCameraUnavailable(fmt.Errorf("camera error reported by client: %s", s.clientErr))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := DecodeDataURL(s.frame)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindInvalidInput, Message: msgUnsupportedImage, Err: err}
	}
	return newImage(data, domain.SourceCamera, s.maxBytes)
}

// Reset releases the frame.
func (s *CameraSource) Reset() {
	s.mu.Lock()
	s.release()
	s.mu.Unlock()
}

func (s *CameraSource) release() {
	s.released = true
	s.frame = ""
}

func newImage(data []byte, src domain.ImageSource, maxBytes int64) (*domain.Image, error) {
	if len(data) == 0 {
		return nil, domain.NewInvalidInput(msgEmptyImage)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.NewInvalidInput(msgImageTooLarge)
	}
	mimeType, ok := AllowedImageMIME(data)
	if !ok {
		return nil, domain.NewInvalidInput(msgUnsupportedImage)
	}
	return &domain.Image{Data: data, MIMEType: mimeType, Source: src}, nil
}
