//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.PostgresConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	store, err := Open(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		store.Close()
		container.Terminate(ctx)
	}

	return store, cleanup
}

func TestAttendanceLedger(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	policy := database.LogPolicy{MinMinutesBetween: 10, OnePerDay: true}

	t.Run("FirstLog", func(t *testing.T) {
		res, err := store.LogAttendance(ctx, 1, "Ana", day, policy)
		if err != nil {
			t.Fatalf("Failed to log attendance: %v", err)
		}
		if !res.Logged {
			t.Error("Expected first log to be accepted")
		}
	})

	t.Run("SameDaySuppressed", func(t *testing.T) {
		res, err := store.LogAttendance(ctx, 1, "Ana", day.Add(6*time.Hour), policy)
		if err != nil {
			t.Fatalf("Failed to log attendance: %v", err)
		}
		if res.Logged {
			t.Error("Expected same-day log to be suppressed")
		}
	})

	t.Run("NextDayAccepted", func(t *testing.T) {
		res, err := store.LogAttendance(ctx, 1, "Ana", day.Add(24*time.Hour), policy)
		if err != nil {
			t.Fatalf("Failed to log attendance: %v", err)
		}
		if !res.Logged {
			t.Error("Expected next-day log to be accepted")
		}
	})

	t.Run("ConcurrentSameIdentity", func(t *testing.T) {
		// Ten concurrent attempts for one user on a fresh day. The advisory
		// lock must let exactly one through.
		when := day.Add(48 * time.Hour)
		results := make(chan bool, 10)
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			go func() {
				res, err := store.LogAttendance(ctx, 1, "Ana", when, policy)
				if err != nil {
					errs <- err
					return
				}
				results <- res.Logged
			}()
		}

		logged := 0
		for i := 0; i < 10; i++ {
			select {
			case err := <-errs:
				t.Fatalf("Concurrent log failed: %v", err)
			case ok := <-results:
				if ok {
					logged++
				}
			}
		}
		if logged != 1 {
			t.Errorf("Expected exactly 1 accepted log, got %d", logged)
		}
	})

	t.Run("LastEvent", func(t *testing.T) {
		last, err := store.LastEvent(ctx, 1)
		if err != nil {
			t.Fatalf("Failed to get last event: %v", err)
		}
		if last == nil {
			t.Fatal("Expected an event")
		}
		if last.Date != day.Add(48*time.Hour).Format(database.DateLayout) {
			t.Errorf("Expected newest event, got %+v", last)
		}
	})

	t.Run("EventsSince", func(t *testing.T) {
		events, err := store.EventsSince(ctx, day)
		if err != nil {
			t.Fatalf("Failed to list events: %v", err)
		}
		if len(events) != 3 {
			t.Errorf("Expected 3 events, got %d", len(events))
		}
		for i := 1; i < len(events); i++ {
			if events[i].TS < events[i-1].TS {
				t.Error("Events not sorted ascending")
			}
		}
	})

	t.Run("ImportVerbatim", func(t *testing.T) {
		event := database.AttendanceEvent{
			UserID: 2,
			Name:   "Ben",
			TS:     "2025-12-01 09:00:00",
			Date:   "2025-12-01",
			Time:   "09:00:00",
		}
		if err := store.ImportEvent(ctx, event); err != nil {
			t.Fatalf("Failed to import event: %v", err)
		}
		// Duplicate (user, ts) pairs are absorbed by the unique constraint.
		if err := store.ImportEvent(ctx, event); err != nil {
			t.Fatalf("Failed to re-import event: %v", err)
		}

		last, err := store.LastEvent(ctx, 2)
		if err != nil {
			t.Fatalf("Failed to get last event: %v", err)
		}
		if last == nil || last.TS != event.TS {
			t.Errorf("Expected imported event, got %+v", last)
		}
	})
}

func TestUserStore(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("UpsertAndList", func(t *testing.T) {
		if err := store.UpsertUser(ctx, 1, "Ana"); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if err := store.UpsertUser(ctx, 1, "Ana Maria"); err != nil {
			t.Fatalf("Failed to rename: %v", err)
		}

		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(users) != 1 || users[0].Name != "Ana Maria" {
			t.Errorf("Expected renamed user, got %+v", users)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.DeleteUser(ctx, 1); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if err := store.DeleteUser(ctx, 1); err != database.ErrUserNotFound {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestTemplateStore(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	template := func(seed float32) []float32 {
		v := make([]float32, 128)
		for i := range v {
			v[i] = seed + float32(i)/128.0
		}
		return v
	}

	t.Run("SaveAndFindSimilar", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			if err := store.UpsertUser(ctx, i, fmt.Sprintf("User%d", i)); err != nil {
				t.Fatalf("Failed to upsert user: %v", err)
			}
			if err := store.SaveTemplate(ctx, i, template(float32(i))); err != nil {
				t.Fatalf("Failed to save template: %v", err)
			}
		}

		matches, err := store.SimilarTemplates(ctx, template(1), 2, 1.0)
		if err != nil {
			t.Fatalf("Failed to query similar: %v", err)
		}
		if len(matches) == 0 {
			t.Fatal("Expected matches, got none")
		}
		if matches[0].UserID != 1 {
			t.Errorf("Expected user 1 as nearest match, got %d", matches[0].UserID)
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Distance < matches[i-1].Distance {
				t.Error("Matches not sorted by distance")
			}
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		if err := store.DeleteUser(ctx, 1); err != nil {
			t.Fatalf("Failed to delete user: %v", err)
		}
		matches, err := store.SimilarTemplates(ctx, template(1), 10, 10.0)
		if err != nil {
			t.Fatalf("Failed to query similar: %v", err)
		}
		for _, m := range matches {
			if m.UserID == 1 {
				t.Error("Template for deleted user should be gone")
			}
		}
	})
}

func TestMigrations(t *testing.T) {
	store, cleanup := setupTestContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	applied, err := store.pool.MigrationsApplied(context.Background())
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expected := []string{
		"001_create_core.sql",
		"002_create_templates.sql",
	}
	if len(applied) != len(expected) {
		t.Errorf("Expected %d migrations, got %d", len(expected), len(applied))
	}
	for i, want := range expected {
		if i < len(applied) && applied[i] != want {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, want, applied[i])
		}
	}
}
