package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/faceattend/faceattend/internal/database"
)

// RequestsHandler manages enrollment requests left by visitors.
type RequestsHandler struct {
	store database.RequestStore
}

// NewRequestsHandler creates a requests handler.
func NewRequestsHandler(store database.RequestStore) *RequestsHandler {
	return &RequestsHandler{store: store}
}

// Create records a new pending enrollment request.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	id, err := h.store.AddRequest(r.Context(), req.Name, req.Contact, req.Message, time.Now())
	if err != nil {
		if errors.Is(err, database.ErrEmptyName) || errors.Is(err, database.ErrEmptyContact) || errors.Is(err, database.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save request")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"status": database.RequestPending,
	})
}

// List returns all enrollment requests ordered by id.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListRequests(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []database.EnrollmentRequest{}
	}
	respondJSON(w, http.StatusOK, requests)
}

// UpdateStatus sets the review status of one request.
func (h *RequestsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.store.UpdateRequestStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, database.ErrRequestNotFound):
			respondError(w, http.StatusNotFound, "request not found")
		case errors.Is(err, database.ErrEmptyStatus):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to update request")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}
