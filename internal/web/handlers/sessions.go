package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/recognize"
	"github.com/faceattend/faceattend/internal/session"
)

// SessionsHandler controls capture sessions over HTTP.
type SessionsHandler struct {
	manager       *session.Manager
	settings      func() config.Settings
	defaultSource string
}

// NewSessionsHandler creates a sessions handler. defaultSource is the frame
// source used when a start request names none; when it is empty too, the
// camera index from the settings file decides.
func NewSessionsHandler(manager *session.Manager, settings func() config.Settings, defaultSource string) *SessionsHandler {
	return &SessionsHandler{manager: manager, settings: settings, defaultSource: defaultSource}
}

// Start launches a capture session on a frame source. The body is optional;
// an empty one starts the default source with the current settings.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	settings := h.settings()
	source := req.Source
	if source == "" {
		source = h.defaultSource
	}
	if source == "" {
		source = strconv.Itoa(settings.CameraIndex)
	}

	params := session.ParamsFromSettings(settings)
	sess, err := h.manager.Start(r.Context(), source, params)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSourceBusy):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, session.ErrConsentRequired),
			errors.Is(err, session.ErrNoEnrolledUsers),
			errors.Is(err, recognize.ErrModelNotReady):
			// Preflight failures carry operator guidance, pass them through.
			respondError(w, http.StatusPreconditionFailed, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to start session")
		}
		return
	}

	respondJSON(w, http.StatusAccepted, sess.Snapshot())
}

// Get returns a snapshot of one session.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	sess := h.manager.Get(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// List returns snapshots of all known sessions, oldest first.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.manager.List()
	snapshots := make([]session.Session, len(sessions))
	for i, sess := range sessions {
		snapshots[i] = sess.Snapshot()
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// Delete stops a running session, or removes a finished one from the
// registry.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return
	}

	sess := h.manager.Get(sessionID)
	if sess == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	if sess.GetState().Terminal() && h.manager.Delete(sessionID) {
		respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}

	sess.Stop()
	respondJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// Events streams session events via SSE.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSessionEvents(w, r, h.manager.Get)
}
