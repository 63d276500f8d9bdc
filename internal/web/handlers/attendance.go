package handlers

import (
	"net/http"
	"time"

	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/export"
)

// AttendanceHandler serves the attendance ledger.
type AttendanceHandler struct {
	store database.AttendanceStore
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(store database.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

// List returns the events inside a reporting window, oldest first. The
// ?period= query selects daily (default), weekly, or monthly.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	period, err := export.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.EventsSince(r.Context(), export.WindowStart(period, time.Now()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}
	if events == nil {
		events = []database.AttendanceEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}
