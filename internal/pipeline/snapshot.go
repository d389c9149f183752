package pipeline

import (
	"time"

	"github.com/vbonduro/wingman/internal/domain"
)

// Snapshot is a read-only view of a session. Image and Replies are shared
// with the session and must not be modified.
type Snapshot struct {
	SessionID string
	Status    domain.Status
	Text      string
	Image     *domain.Image
	Replies   *domain.Replies
	Error     string
	ErrorKind domain.ErrorKind
	// Copied[i] reports whether option i was copied within the feedback window.
	Copied []bool
	// CaptureEpoch changes whenever the capture source is reset; a UI keyed
	// on it re-renders an empty picker.
	CaptureEpoch uint64
}

func (s Snapshot) Busy() bool { return s.Status.Busy() }

func (s Snapshot) HasImage() bool { return s.Image != nil }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:    s.id,
		Status:       s.status,
		Text:         s.input.Text,
		Image:        s.input.Image,
		Replies:      s.replies,
		CaptureEpoch: s.epoch,
	}
	if s.err != nil {
		snap.Error = s.err.Message
		snap.ErrorKind = s.err.Kind
	}
	if s.replies != nil {
		snap.Copied = make([]bool, len(s.replies.Options))
		for i := range snap.Copied {
			snap.Copied[i] = s.copied[i]
		}
	}
	return snap
}

// Subscribe returns a channel that receives the current snapshot and then
// one snapshot per change. A slow reader only ever sees the latest one. The
// channel is closed by the returned cancel func or when the session closes.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- s.snapshotLocked()
	s.subs[ch] = struct{}{}
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publishLocked() {
	s.lastActive = time.Now()
	snap := s.snapshotLocked()
	for ch := range s.subs {
		// Drop an unread snapshot so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
