package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/export"
)

// ExportHandler serves CSV report downloads.
type ExportHandler struct {
	store database.AttendanceStore
}

// NewExportHandler creates an export handler.
func NewExportHandler(store database.AttendanceStore) *ExportHandler {
	return &ExportHandler{store: store}
}

// Download returns a CSV report for the window selected by ?period=. The
// report is built in memory first so a store failure still yields a clean
// error response instead of a truncated file.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	period, err := export.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	reporter := export.Reporter{Store: h.store}

	var buf bytes.Buffer
	if _, err := reporter.WriteCSV(r.Context(), period, now, &buf); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to export attendance")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(period, now)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
