package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/wingman/internal/capture"
	"github.com/vbonduro/wingman/internal/domain"
)

// CopyFeedback is how long an option shows as copied.
const CopyFeedback = 2 * time.Second

// ErrSuperseded is returned by a run whose result was discarded because the
// session was cleared, recaptured, or closed while it was in flight.
var ErrSuperseded = errors.New("pipeline run superseded")

// extractor is the subset of wingman.Extractor the session needs.
type extractor interface {
	ExtractText(ctx context.Context, img *domain.Image) (string, error)
}

// replyGenerator is the subset of wingman.ReplyGenerator the session needs.
type replyGenerator interface {
	Generate(ctx context.Context, text string, img *domain.Image) (*domain.Replies, error)
}

type Options struct {
	// Timeout bounds each model run. Zero means no limit beyond cancellation.
	Timeout time.Duration
	// CopyFeedback overrides the copied-flag duration.
	CopyFeedback time.Duration
}

// Session owns the state of one user's wingman: input, status, results,
// the error slot and per-option copy flags. All methods are safe for
// concurrent use; the lock is never held across a model call.
type Session struct {
	id        string
	extractor extractor
	generator replyGenerator
	logger    *slog.Logger
	opts      Options

	mu         sync.Mutex
	input      domain.InputState
	status     domain.Status
	replies    *domain.Replies
	err        *domain.Error
	copied     map[int]bool
	copyGen    uint64
	timers     []*time.Timer
	epoch      uint64
	source     capture.Source
	run        uint64
	cancel     context.CancelFunc
	subs       map[chan Snapshot]struct{}
	lastActive time.Time
	closed     bool
}

func NewSession(id string, ext extractor, gen replyGenerator, logger *slog.Logger, opts Options) *Session {
	if opts.CopyFeedback <= 0 {
		opts.CopyFeedback = CopyFeedback
	}
	return &Session{
		id:         id,
		extractor:  ext,
		generator:  gen,
		logger:     logger.With("session_id", id),
		opts:       opts,
		copied:     make(map[int]bool),
		subs:       make(map[chan Snapshot]struct{}),
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Capture acquires an image from src, resets the session around it and
// extracts the counterpart's message. A capture supersedes any run in
// flight and replaces the previous source. If extraction fails or the text
// is rejected the image is dropped and the capture source reset.
func (s *Session) Capture(ctx context.Context, src capture.Source) error {
	img, err := src.Acquire(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrSuperseded
		}
		s.logger.Warn("capture failed", "error", err)
		s.setErrorLocked(err)
		s.publishLocked()
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		src.Reset()
		return ErrSuperseded
	}
	s.cancelRunLocked()
	s.resetDerivedLocked()
	if s.source != nil {
		s.resetSourceLocked()
	}
	s.source = src
	s.input.Image = img
	s.status = domain.StatusExtractingText
	runCtx, run := s.beginRunLocked(ctx)
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info("capture acquired", "source", img.Source, "mime_type", img.MIMEType, "bytes", len(img.Data))
	text, err := s.extractor.ExtractText(runCtx, img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(run) {
		s.logger.Debug("discarding stale extraction result")
		return ErrSuperseded
	}
	s.endRunLocked()
	if err != nil {
		s.input.Image = nil
		s.resetSourceLocked()
		s.setErrorLocked(err)
		s.publishLocked()
		return err
	}
	s.input.Text = text
	s.publishLocked()
	return nil
}

// SetText records the message the user typed or edited and clears the
// error slot.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.input.Text = text
	s.err = nil
	s.publishLocked()
}

// RequestReplies asks for reply options for the current input. It needs
// text or an image and refuses while another run is in flight.
func (s *Session) RequestReplies(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if s.status.Busy() {
		s.mu.Unlock()
		return domain.ErrBusy
	}
	input := s.input
	if !input.Ready() {
		err := domain.NewInvalidInput(domain.MsgMissingInput)
		s.setErrorLocked(err)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	s.err = nil
	s.replies = nil
	s.clearCopiedLocked()
	s.status = domain.StatusGenerating
	runCtx, run := s.beginRunLocked(ctx)
	s.publishLocked()
	s.mu.Unlock()

	replies, err := s.generator.Generate(runCtx, input.Text, input.Image)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(run) {
		s.logger.Debug("discarding stale generation result")
		return ErrSuperseded
	}
	s.endRunLocked()
	if err != nil {
		s.setErrorLocked(err)
		s.publishLocked()
		return err
	}
	// A capture that failed to acquire while this run was in flight may have
	// filled the slot; fresh replies supersede it.
	s.err = nil
	s.replies = replies
	s.publishLocked()
	return nil
}

// Clear resets text, image, results, error and copy flags whatever the
// current status, cancels any run in flight and resets the capture source.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelRunLocked()
	s.resetDerivedLocked()
	s.input.Image = nil
	s.resetSourceLocked()
	s.publishLocked()
}

// MarkCopied flags option index as copied for the copy-feedback duration.
func (s *Session) MarkCopied(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replies == nil || index < 0 || index >= len(s.replies.Options) {
		return domain.NewInvalidInput("No reply option to copy.")
	}
	s.copied[index] = true
	gen := s.copyGen
	s.timers = append(s.timers, time.AfterFunc(s.opts.CopyFeedback, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.copyGen != gen {
			return
		}
		delete(s.copied, index)
		s.publishLocked()
	}))
	s.publishLocked()
	return nil
}

// Close cancels any run, stops timers and closes all subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelRunLocked()
	s.clearCopiedLocked()
	if s.source != nil {
		s.source.Reset()
		s.source = nil
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
}

func (s *Session) beginRunLocked(parent context.Context) (context.Context, uint64) {
	// Detach from the caller so the run survives the page navigating away;
	// Clear, a new capture and Close cancel it instead.
	base := context.WithoutCancel(parent)
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(base, s.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(base)
	}
	s.run++
	s.cancel = cancel
	return ctx, s.run
}

func (s *Session) endRunLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = domain.StatusIdle
}

// cancelRunLocked invalidates the run in flight, if any.
func (s *Session) cancelRunLocked() {
	if s.cancel != nil {
		s.logger.Info("cancelling run in flight", "status", s.status.String())
	}
	s.endRunLocked()
	s.run++
}

func (s *Session) currentLocked(run uint64) bool {
	return !s.closed && run == s.run
}

func (s *Session) resetDerivedLocked() {
	s.input.Text = ""
	s.replies = nil
	s.err = nil
	s.clearCopiedLocked()
}

func (s *Session) clearCopiedLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.copied = make(map[int]bool)
	s.copyGen++
}

func (s *Session) resetSourceLocked() {
	if s.source != nil {
		s.source.Reset()
		s.source = nil
	}
	s.epoch++
}

func (s *Session) setErrorLocked(err error) {
	de := domain.AsError(err)
	if de.Kind == domain.KindContentRejected {
		s.logger.Info("pipeline error", "kind", de.Kind, "reason", de.Reason)
	} else {
		s.logger.Error("pipeline error", "kind", de.Kind, "error", err)
	}
	s.err = de
}
