package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/wingman/internal/pipeline"
	"github.com/vbonduro/wingman/internal/session"
)

const sessionCookie = "wingman_session"

type Server struct {
	sessions       *session.Registry
	templates      embed.FS
	maxUploadBytes int64
	mux            *http.ServeMux
	tmplFuncs      template.FuncMap
	logger         *slog.Logger
}

func NewServer(reg *session.Registry, tmpl embed.FS, maxUploadBytes int64, logger *slog.Logger) *Server {
	s := &Server{
		sessions:       reg,
		templates:      tmpl,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
		logger:         logger,
		tmplFuncs: template.FuncMap{
			"inc": func(i int) int { return i + 1 },
			"imageVersion": func(snap pipeline.Snapshot) string {
				return fmt.Sprintf("%d-%p", snap.CaptureEpoch, snap.Image)
			},
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	s.mux.HandleFunc("POST /capture/file", s.handleCaptureFile)
	s.mux.HandleFunc("POST /capture/camera", s.handleCaptureCamera)
	s.mux.HandleFunc("GET /capture/preview", s.handlePreview)
	s.mux.HandleFunc("POST /text", s.handleSetText)
	s.mux.HandleFunc("POST /replies", s.handleReplies)
	s.mux.HandleFunc("POST /clear", s.handleClear)
	s.mux.HandleFunc("POST /copy/{index}", s.handleCopy)
	s.mux.HandleFunc("GET /events", s.handleEvents)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(self)")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: blob:; "+
				"media-src 'self' blob:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// event stream needs for flushing and deadlines.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server for addr. The write timeout is generous
// because a model call can take a while; the event stream clears its own
// deadline.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// session returns the caller's session, starting one and setting the cookie
// if the request has none or it has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *pipeline.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}
	sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return sess
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial executes the named {{define}} block from files.
func (s *Server) renderPartial(w http.ResponseWriter, name string, data any, files ...string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.executePartial(w, name, data, files...); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	return nil
}

func (s *Server) executePartial(w io.Writer, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
