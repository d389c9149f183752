package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vbonduro/wingman/internal/domain"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	files := append([]string{"base.html", "index.html"}, stateFiles...)
	if err := s.renderPage(w, newStateView(sess.Snapshot()), files...); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleSetText keeps the session in step with the message box as the user
// types. Nothing is re-rendered so the caret stays put.
func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	sess.SetText(r.PostFormValue("text"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["text"]; ok && !sess.Snapshot().Busy() {
		sess.SetText(r.PostFormValue("text"))
	}

	var notice string
	if err := sess.RequestReplies(r.Context()); errors.Is(err, domain.ErrBusy) {
		notice = domain.MsgBusy
	}
	s.renderState(w, sess, notice, false)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Clear()
	s.renderState(w, sess, "", true)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid option index", http.StatusBadRequest)
		return
	}
	if err := sess.MarkCopied(index); err != nil {
		http.Error(w, domain.UserMessage(err), http.StatusBadRequest)
		return
	}
	s.renderState(w, sess, "", false)
}
