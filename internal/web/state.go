package web

import (
	"net/http"

	"github.com/vbonduro/wingman/internal/pipeline"
)

// stateFiles holds the templates the state partial needs.
var stateFiles = []string{"partials/state.html", "partials/message.html"}

type optionView struct {
	Index  int
	Title  string
	Reply  string
	Copied bool
}

// stateView is what partials/state.html renders.
type stateView struct {
	pipeline.Snapshot
	Options []optionView
	// Notice is a transient message that is not part of the session state.
	Notice string
	// SyncText re-renders the message box out of band, after a capture or
	// clear changed the text under the user.
	SyncText bool
}

func newStateView(snap pipeline.Snapshot) stateView {
	v := stateView{Snapshot: snap}
	if snap.Replies != nil {
		for i, opt := range snap.Replies.Options {
			v.Options = append(v.Options, optionView{
				Index:  i,
				Title:  opt.Title,
				Reply:  opt.Reply,
				Copied: i < len(snap.Copied) && snap.Copied[i],
			})
		}
	}
	return v
}

func (s *Server) renderState(w http.ResponseWriter, sess *pipeline.Session, notice string, syncText bool) {
	v := newStateView(sess.Snapshot())
	v.Notice = notice
	v.SyncText = syncText
	if err := s.renderPartial(w, "state", v, stateFiles...); err != nil {
		s.logger.Error("render state failed", "session_id", sess.ID(), "error", err)
	}
}
