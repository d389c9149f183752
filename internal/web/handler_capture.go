package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/wingman/internal/capture"
	"github.com/vbonduro/wingman/internal/domain"
	"github.com/vbonduro/wingman/internal/pipeline"
)

// formOverhead is the allowance on top of the image itself for multipart
// boundaries and other form fields.
const formOverhead = 1 << 20

const msgTooLarge = "That screenshot is too large. Try a smaller image."

func (s *Server) handleCaptureFile(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.rejectForm(w, sess, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	err = sess.Capture(r.Context(), capture.NewFileSource(file, s.maxUploadBytes))
	s.logCapture(sess, err)
	s.renderState(w, sess, "", true)
}

// handleCaptureCamera accepts a frame grabbed from the browser camera as a
// data URL, or the reason the browser could not open the camera.
func (s *Server) handleCaptureCamera(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	// Base64 inflates the frame by a third.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes/3*4+formOverhead)

	if err := r.ParseForm(); err != nil {
		s.rejectForm(w, sess, err)
		return
	}

	src := capture.NewCameraSource(r.PostFormValue("frame"), r.PostFormValue("camera_error"), s.maxUploadBytes)
	err := sess.Capture(r.Context(), src)
	s.logCapture(sess, err)
	s.renderState(w, sess, "", true)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).Snapshot()
	if snap.Image == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", snap.Image.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(snap.Image.Data); err != nil {
		s.logger.Error("write preview failed", "session_id", snap.SessionID, "error", err)
	}
}

// rejectForm answers a form that could not be parsed. An oversized body is
// reported in the page; anything else is a bad request.
func (s *Server) rejectForm(w http.ResponseWriter, sess *pipeline.Session, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.renderState(w, sess, msgTooLarge, false)
		return
	}
	http.Error(w, "failed to parse form", http.StatusBadRequest)
}

func (s *Server) logCapture(sess *pipeline.Session, err error) {
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrSuperseded):
		s.logger.Debug("capture superseded", "session_id", sess.ID())
	default:
		s.logger.Warn("capture did not complete", "session_id", sess.ID(), "kind", domain.KindOf(err), "error", err)
	}
}
