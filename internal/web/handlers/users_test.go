package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/constants"
	"github.com/faceattend/faceattend/internal/database"
)

// fakeTemplateStore implements database.TemplateStore for handler tests.
type fakeTemplateStore struct {
	matches    []database.TemplateMatch
	similarErr error
	saveErr    error
	saved      map[int][]float32
}

func (f *fakeTemplateStore) SaveTemplate(ctx context.Context, userID int, template []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[int][]float32)
	}
	f.saved[userID] = template
	return nil
}

func (f *fakeTemplateStore) SimilarTemplates(ctx context.Context, template []float32, limit int, maxDistance float64) ([]database.TemplateMatch, error) {
	return f.matches, f.similarErr
}

func templateBody(t *testing.T, force bool) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"template": make([]float32, constants.TemplateDim),
		"force":    force,
	})
	if err != nil {
		t.Fatalf("failed to marshal template body: %v", err)
	}
	return string(body)
}

func TestUsersList(t *testing.T) {
	store := newTestStore(t, map[int]string{2: "Ben", 1: "Ana"})
	handler := NewUsersHandler(store, nil, fixedSettings(config.Settings{}))

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var users []database.User
	parseJSONResponse(t, recorder, &users)

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != 1 || users[0].Name != "Ana" {
		t.Errorf("expected users ordered by id, got %+v", users)
	}
}

func TestUsersUpsert(t *testing.T) {
	store := newTestStore(t, nil)
	handler := NewUsersHandler(store, nil, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/7", `{"name": "  Ana Costa  "}`)
	req = requestWithChiParams(req, map[string]string{"id": "7"})
	recorder := httptest.NewRecorder()
	handler.Upsert(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var user database.User
	parseJSONResponse(t, recorder, &user)
	if user.ID != 7 || user.Name != "Ana Costa" {
		t.Errorf("expected trimmed user back, got %+v", user)
	}

	users, _ := store.UserMap(context.Background())
	if users[7] != "Ana Costa" {
		t.Errorf("expected user persisted, got %v", users)
	}
}

func TestUsersUpsert_EmptyName(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), nil, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/7", `{"name": "   "}`)
	req = requestWithChiParams(req, map[string]string{"id": "7"})
	recorder := httptest.NewRecorder()
	handler.Upsert(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "name cannot be empty")
}

func TestUsersUpsert_InvalidID(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), nil, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/abc", `{"name": "Ana"}`)
	req = requestWithChiParams(req, map[string]string{"id": "abc"})
	recorder := httptest.NewRecorder()
	handler.Upsert(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid user id")
}

func TestUsersUpsert_InvalidJSON(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), nil, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/7", `{invalid}`)
	req = requestWithChiParams(req, map[string]string{"id": "7"})
	recorder := httptest.NewRecorder()
	handler.Upsert(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}

func TestUsersUpsert_PrivacyMode(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), nil, fixedSettings(config.Settings{PrivacyMode: true}))

	req := jsonRequest("PUT", "/api/v1/users/7", `{"name": "Ana"}`)
	req = requestWithChiParams(req, map[string]string{"id": "7"})
	recorder := httptest.NewRecorder()
	handler.Upsert(recorder, req)

	assertStatusCode(t, recorder, http.StatusForbidden)
}

func TestUsersDelete(t *testing.T) {
	store := newTestStore(t, map[int]string{1: "Ana"})
	handler := NewUsersHandler(store, nil, fixedSettings(config.Settings{}))

	req := httptest.NewRequest("DELETE", "/api/v1/users/1", nil)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	users, _ := store.UserMap(context.Background())
	if len(users) != 0 {
		t.Errorf("expected user removed, got %v", users)
	}
}

func TestUsersDelete_NotFound(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), nil, fixedSettings(config.Settings{}))

	req := httptest.NewRequest("DELETE", "/api/v1/users/99", nil)
	req = requestWithChiParams(req, map[string]string{"id": "99"})
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "user not found")
}

func TestSaveTemplate_RequiresVectorBackend(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana"}), nil, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", templateBody(t, false))
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotImplemented)
}

func TestSaveTemplate_PrivacyMode(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana"}), &fakeTemplateStore{},
		fixedSettings(config.Settings{PrivacyMode: true}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", templateBody(t, false))
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusForbidden)
}

func TestSaveTemplate_WrongDimension(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana"}), &fakeTemplateStore{},
		fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", `{"template": [0.1, 0.2]}`)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSaveTemplate_UnknownUser(t *testing.T) {
	handler := NewUsersHandler(newTestStore(t, nil), &fakeTemplateStore{}, fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/5/template", templateBody(t, false))
	req = requestWithChiParams(req, map[string]string{"id": "5"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "user not found")
}

func TestSaveTemplate_DuplicateFace(t *testing.T) {
	templates := &fakeTemplateStore{
		matches: []database.TemplateMatch{{UserID: 2, Name: "Ben", Distance: 0.12}},
	}
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana", 2: "Ben"}), templates,
		fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", templateBody(t, false))
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)

	var result struct {
		Error   string                   `json:"error"`
		Matches []database.TemplateMatch `json:"matches"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.Matches) != 1 || result.Matches[0].UserID != 2 {
		t.Errorf("expected Ben in matches, got %+v", result.Matches)
	}
	if len(templates.saved) != 0 {
		t.Error("template must not be saved on conflict")
	}
}

func TestSaveTemplate_OwnMatchIsNotDuplicate(t *testing.T) {
	// Re-enrolling the same user matches their own stored template.
	templates := &fakeTemplateStore{
		matches: []database.TemplateMatch{{UserID: 1, Name: "Ana", Distance: 0.05}},
	}
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana"}), templates,
		fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", templateBody(t, false))
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if _, ok := templates.saved[1]; !ok {
		t.Error("expected template saved for user 1")
	}
}

func TestSaveTemplate_ForceSkipsDuplicateCheck(t *testing.T) {
	templates := &fakeTemplateStore{
		matches: []database.TemplateMatch{{UserID: 2, Name: "Ben", Distance: 0.12}},
	}
	handler := NewUsersHandler(newTestStore(t, map[int]string{1: "Ana", 2: "Ben"}), templates,
		fixedSettings(config.Settings{}))

	req := jsonRequest("PUT", "/api/v1/users/1/template", templateBody(t, true))
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	recorder := httptest.NewRecorder()
	handler.SaveTemplate(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if _, ok := templates.saved[1]; !ok {
		t.Error("expected template saved despite duplicate")
	}
}
