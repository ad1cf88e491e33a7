// Package api is the admin and ingestion surface: health, workbook upload
// and saved planning scenarios. The dashboard itself is served by ui.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trialdash/internal"
	"trialdash/internal/dataset"
	"trialdash/ports"
)

// App represents the admin application
type App struct {
	router    *chi.Mux
	store     *dataset.Store
	scenarios ports.ScenarioRepositoryPort
	uploads   *dataset.UploadStorage
	sheet     string
	log       *internal.Logger
}

// Config holds admin application configuration
type Config struct {
	Port          string
	WorkbookSheet string
	UploadDir     string
}

// NewApp creates a new admin application. scenarios may be nil when no
// database is configured; the scenario routes then return 503.
func NewApp(cfg Config, store *dataset.Store, scenarios ports.ScenarioRepositoryPort, logger *internal.Logger) *App {
	app := &App{
		router:    chi.NewRouter(),
		store:     store,
		scenarios: scenarios,
		uploads:   dataset.NewUploadStorage(cfg.UploadDir),
		sheet:     cfg.WorkbookSheet,
		log:       logger.WithComponent("AdminAPI"),
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Post("/api/workbooks/upload", a.handleWorkbookUpload)

	a.router.Route("/api/scenarios", func(r chi.Router) {
		r.Use(a.requirePersistence)
		r.Post("/", a.handleSaveScenario)
		r.Get("/", a.handleListScenarios)
		r.Get("/{id}", a.handleGetScenario)
		r.Delete("/{id}", a.handleDeleteScenario)
	})
}

// Router exposes the configured handler for serving and tests.
func (a *App) Router() http.Handler {
	return a.router
}

// requirePersistence guards scenario routes when no repository is wired.
func (a *App) requirePersistence(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.scenarios == nil {
			a.writeError(w, http.StatusServiceUnavailable, "scenario persistence is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}
