package web

import (
	"bufio"
	"bytes"
	"net/http"
	"time"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams the session state as server-sent events. Each change
// is one "state" event whose data is the rendered state partial, which the
// page swaps in place. The stream ends when the client goes away or the
// session expires.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	// The server write timeout would cut a long-lived stream.
	_ = rc.SetWriteDeadline(time.Time{})

	snapshots, cancel := sess.Subscribe()
	defer cancel()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			buf.Reset()
			if err := s.executePartial(&buf, "state", newStateView(snap), stateFiles...); err != nil {
				s.logger.Error("render state event failed", "session_id", sess.ID(), "error", err)
				return
			}
			if err := writeEvent(w, "state", buf.Bytes()); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes one SSE event, prefixing every line of data.
func writeEvent(w http.ResponseWriter, event string, data []byte) error {
	var out bytes.Buffer
	out.WriteString("event: " + event + "\n")
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		out.WriteString("data: ")
		out.Write(sc.Bytes())
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}
