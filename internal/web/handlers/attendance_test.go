package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

func TestAttendanceList_DefaultsToDaily(t *testing.T) {
	store := newTestStore(t, nil)
	now := time.Now()
	seedEventAt(store, 1, "Ana", now)
	seedEventAt(store, 2, "Ben", now.AddDate(0, 0, -2))

	handler := NewAttendanceHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/attendance", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var events []database.AttendanceEvent
	parseJSONResponse(t, recorder, &events)

	if len(events) != 1 {
		t.Fatalf("expected 1 event in today's window, got %d", len(events))
	}
	if events[0].Name != "Ana" {
		t.Errorf("expected Ana, got %s", events[0].Name)
	}
}

func TestAttendanceList_WeeklyWindow(t *testing.T) {
	store := newTestStore(t, nil)
	now := time.Now()
	seedEventAt(store, 1, "Ana", now)
	// Ten days back is outside the weekly window on any weekday.
	seedEventAt(store, 2, "Ben", now.AddDate(0, 0, -10))

	handler := NewAttendanceHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/attendance?period=weekly", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var events []database.AttendanceEvent
	parseJSONResponse(t, recorder, &events)

	if len(events) != 1 {
		t.Fatalf("expected 1 event in the weekly window, got %d", len(events))
	}
}

func TestAttendanceList_EmptyWindowIsArray(t *testing.T) {
	handler := NewAttendanceHandler(newTestStore(t, nil))

	req := httptest.NewRequest("GET", "/api/v1/attendance", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if body := recorder.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestAttendanceList_BadPeriod(t *testing.T) {
	handler := NewAttendanceHandler(newTestStore(t, nil))

	req := httptest.NewRequest("GET", "/api/v1/attendance?period=yearly", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "period must be one of: daily, weekly, monthly")
}

func TestAttendanceList_StoreError(t *testing.T) {
	store := newTestStore(t, nil)
	store.EventsSinceError = errors.New("disk gone")
	handler := NewAttendanceHandler(store)

	req := httptest.NewRequest("GET", "/api/v1/attendance", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list attendance")
}
