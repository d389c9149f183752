package wingman

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vbonduro/wingman/internal/model"
)

// stubModel answers moderation calls (VerdictSchema) and everything else
// from separate canned responses, and records every request.
type stubModel struct {
	mu       sync.Mutex
	requests []model.Request

	verdict    string
	verdictErr error
	reply      string
	replyErr   error
}

func (s *stubModel) Generate(_ context.Context, req model.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if req.Schema == model.VerdictSchema {
		return s.verdict, s.verdictErr
	}
	return s.reply, s.replyErr
}

func (s *stubModel) moderationCalls() []model.Request {
	return s.filter(func(r model.Request) bool { return r.Schema == model.VerdictSchema })
}

func (s *stubModel) otherCalls() []model.Request {
	return s.filter(func(r model.Request) bool { return r.Schema != model.VerdictSchema })
}

func (s *stubModel) filter(keep func(model.Request) bool) []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Request
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

const (
	verdictClean      = `{"inappropriate": false}`
	verdictHarassment = `{"inappropriate": true, "reason": "harassment"}`
	threeOptions      = `{"options":[
		{"title":"Playful","reply":"Tomake niye vabtesi, r ki?"},
		{"title":"Sweet","reply":"Tomar kotha mone portesilo"},
		{"title":"Cool","reply":"Chill kortesi, tumi?"}]}`
)

func testLogger() *slog.Logger { return slog.Default() }
