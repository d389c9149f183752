// Package session keeps the live pipeline sessions keyed by browser cookie
// or chat ID and expires the idle ones.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/wingman/internal/pipeline"
)

// Factory builds a new session for id.
type Factory func(id string) *pipeline.Session

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*pipeline.Session
	factory  Factory
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegistry(factory Factory, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*pipeline.Session),
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a session under a fresh random ID.
func (r *Registry) Create() *pipeline.Session {
	return r.GetOrCreate(uuid.NewString())
}

func (r *Registry) Get(id string) (*pipeline.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it if needed. An empty id
// gets a fresh random one.
func (r *Registry) GetOrCreate(id string) *pipeline.Session {
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := r.factory(id)
	r.sessions[id] = s
	r.logger.Debug("session created", "session_id", id, "active", len(r.sessions))
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes every session idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*pipeline.Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired idle sessions", "count", len(expired), "active", r.Len())
	}
	return len(expired)
}

// Run sweeps on a ticker until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*pipeline.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
