package handlers

import (
	"net/http"

	"github.com/faceattend/faceattend/internal/config"
)

// SettingsHandler exposes the operator-editable tunables, including the
// privacy-notice consent flag the capture preflight checks.
type SettingsHandler struct {
	path string
}

// NewSettingsHandler creates a settings handler backed by the YAML file at
// path.
func NewSettingsHandler(path string) *SettingsHandler {
	return &SettingsHandler{path: path}
}

// Get returns the current settings. A missing or broken file yields the
// defaults, same as everywhere else.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, config.LoadSettings(h.path))
}

// Update merges the request body over the current settings and persists the
// result. Absent keys keep their current values, so a client can flip a
// single flag (consent, say) without knowing the rest.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	settings := config.LoadSettings(h.path)
	if err := decodeJSON(w, r, &settings); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := config.SaveSettings(h.path, settings); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	// Reload so the response reflects clamping.
	respondJSON(w, http.StatusOK, config.LoadSettings(h.path))
}
