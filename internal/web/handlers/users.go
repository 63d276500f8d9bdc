package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/constants"
	"github.com/faceattend/faceattend/internal/database"
)

// UsersHandler manages enrolled identities. Template endpoints are only
// served when the storage backend supports face templates; templates is nil
// otherwise.
type UsersHandler struct {
	users     database.UserStore
	templates database.TemplateStore
	settings  func() config.Settings
}

// NewUsersHandler creates a users handler. templates may be nil when the
// backend has no vector support.
func NewUsersHandler(users database.UserStore, templates database.TemplateStore, settings func() config.Settings) *UsersHandler {
	return &UsersHandler{users: users, templates: templates, settings: settings}
}

// List returns all enrolled users ordered by id.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []database.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// Upsert creates or renames the user with the id from the URL.
func (h *UsersHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.settings().PrivacyMode {
		respondError(w, http.StatusForbidden, "privacy mode is on: enrollment changes are disabled")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	name, err := database.CleanName(req.Name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.UpsertUser(r.Context(), id, name); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	slog.Info("user saved", "user_id", id, "name", sanitizeForLog(name))
	respondJSON(w, http.StatusOK, database.User{ID: id, Name: name})
}

// Delete removes a user from future recognition. Attendance history stays.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	slog.Info("user deleted", "user_id", id)
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// templateRequest carries a face template upload. Force skips the
// duplicate-enrollment check.
type templateRequest struct {
	Template []float32 `json:"template"`
	Force    bool      `json:"force"`
}

// SaveTemplate stores the face template for an enrolled user. Unless forced,
// the template is first compared against every enrolled template and the
// upload is rejected when another user's face is too close, which usually
// means the same person is being enrolled twice.
func (h *UsersHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	if h.settings().PrivacyMode {
		respondError(w, http.StatusForbidden, "privacy mode is on: enrollment changes are disabled")
		return
	}
	if h.templates == nil {
		respondError(w, http.StatusNotImplemented, "face templates require the postgres backend")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Template) != constants.TemplateDim {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("template must have %d dimensions", constants.TemplateDim))
		return
	}

	users, err := h.users.UserMap(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	if _, ok := users[id]; !ok {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	if !req.Force {
		matches, err := h.templates.SimilarTemplates(r.Context(), req.Template,
			constants.DefaultSimilarLimit, constants.DefaultDuplicateDistance)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to check for duplicates")
			return
		}
		others := make([]database.TemplateMatch, 0, len(matches))
		for _, m := range matches {
			if m.UserID != id {
				others = append(others, m)
			}
		}
		if len(others) > 0 {
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":   "a similar face is already enrolled",
				"matches": others,
			})
			return
		}
	}

	if err := h.templates.SaveTemplate(r.Context(), id, req.Template); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save template")
		return
	}
	slog.Info("face template saved", "user_id", id)
	respondJSON(w, http.StatusOK, map[string]bool{"saved": true})
}
