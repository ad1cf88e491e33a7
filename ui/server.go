// Package ui serves the dashboard: one JSON endpoint per chart panel, a
// planning calculator, a quality passthrough and the methodology notes page.
// Every panel endpoint reads the current dataset snapshot and assembles its
// view on the fly; nothing here mutates the dataset.
package ui

import (
	"os"
	"path/filepath"

	"trialdash/domain/core"
	"trialdash/internal"
	"trialdash/internal/dataset"
	"trialdash/ports"

	"github.com/gin-gonic/gin"
)

// Config carries everything the dashboard server needs from the host.
type Config struct {
	Port      string
	GinMode   string
	StudyID   core.StudyID
	ExportDir string
}

// Server is the gin-backed dashboard API.
type Server struct {
	router    *gin.Engine
	store     *dataset.Store
	quality   ports.QualityMetricsPort
	studyID   core.StudyID
	exportDir string
	log       *internal.Logger
}

// NewServer wires the dashboard against the shared dataset store. quality
// may be nil when no upstream backend is configured; the quality endpoint
// then reports unavailable instead of failing requests elsewhere.
func NewServer(cfg Config, store *dataset.Store, quality ports.QualityMetricsPort, logger *internal.Logger) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = os.TempDir()
	}

	s := &Server{
		router:    gin.New(),
		store:     store,
		quality:   quality,
		studyID:   cfg.StudyID,
		exportDir: filepath.Clean(cfg.ExportDir),
		log:       logger.WithComponent("Dashboard"),
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/methodology", s.handleMethodology)

	api := s.router.Group("/api")
	{
		api.GET("/fields", s.handleFields)
		api.GET("/dataset", s.handleDatasetInfo)
		api.GET("/quality", s.handleQuality)

		viewsGroup := api.Group("/views")
		{
			viewsGroup.GET("/trend", s.handleTrend)
			viewsGroup.GET("/boxplot", s.handleBoxPlot)
			viewsGroup.GET("/scatter", s.handleScatter)
			viewsGroup.GET("/trajectories", s.handleTrajectories)
			viewsGroup.GET("/trajectories/export", s.handleTrajectoryExport)
			viewsGroup.GET("/distribution", s.handleDistribution)
		}

		api.POST("/planning/sample-size", s.handleSampleSize)
	}
}

// Start blocks serving the dashboard on the configured address.
func (s *Server) Start(addr string) error {
	s.log.Info("Dashboard listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
