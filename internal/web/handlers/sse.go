package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/faceattend/faceattend/internal/session"
)

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// setupSSEConnection validates the request, finds the session, and sets up SSE headers.
// Returns the session, flusher, and true on success. On failure, writes an error response
// and returns zero values with false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request, lookup func(string) *session.Session) (*session.Session, http.Flusher, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil, nil, false
	}

	sess := lookup(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, nil, false
	}

	return sess, flusher, true
}

// streamSessionEvents streams capture session events until the session reaches
// a terminal state, the client disconnects, or the listener channel closes.
// The stream always opens with a snapshot of the session, so a client that
// connects after the session finished still sees the outcome.
func streamSessionEvents(w http.ResponseWriter, r *http.Request, lookup func(string) *session.Session) {
	sess, flusher, ok := setupSSEConnection(w, r, lookup)
	if !ok {
		return
	}

	eventCh := sess.AddListener()
	defer sess.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "snapshot", sess.Snapshot())
	if sess.GetState().Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if sess.GetState().Terminal() {
				return
			}
		}
	}
}
