package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/web/handlers"
	"github.com/faceattend/faceattend/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Settings are re-read per request so edits to the file (or through the
	// settings endpoint) take effect without a restart.
	settings := func() config.Settings {
		return config.LoadSettings(s.config.SettingsPath)
	}

	// Template storage is optional; only the postgres backend provides it.
	templates, _ := s.store.(database.TemplateStore)

	attendanceHandler := handlers.NewAttendanceHandler(s.store)
	exportHandler := handlers.NewExportHandler(s.store)
	usersHandler := handlers.NewUsersHandler(s.store, templates, settings)
	requestsHandler := handlers.NewRequestsHandler(s.store)
	settingsHandler := handlers.NewSettingsHandler(s.config.SettingsPath)
	sessionsHandler := handlers.NewSessionsHandler(s.sessions, settings, s.config.Recognizer.Source)

	// Health check (no auth required)
	s.router.Get("/healthz", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.Web.Token))

		// Attendance ledger
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/export", exportHandler.Download)

		// Users
		r.Get("/users", usersHandler.List)
		r.Put("/users/{id}", usersHandler.Upsert)
		r.Delete("/users/{id}", usersHandler.Delete)
		r.Put("/users/{id}/template", usersHandler.SaveTemplate)

		// Enrollment requests
		r.Post("/requests", requestsHandler.Create)
		r.Get("/requests", requestsHandler.List)
		r.Put("/requests/{id}", requestsHandler.UpdateStatus)

		// Settings
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		// Capture sessions (long-running operations)
		r.Post("/sessions", sessionsHandler.Start)
		r.Get("/sessions", sessionsHandler.List)
		r.Get("/sessions/{sessionId}", sessionsHandler.Get)
		r.Delete("/sessions/{sessionId}", sessionsHandler.Delete)
		r.Get("/sessions/{sessionId}/events", sessionsHandler.Events)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves a placeholder page pointing at the API.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>FaceAttend</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>FaceAttend Kiosk</h1>
        <p>This host serves the attendance API only.</p>
        <p>Health check at <a href="/healthz">/healthz</a></p>
    </div>
</body>
</html>`))
}
