package main

import (
	"context"
	"net/http"
	"os"

	"trialdash/adapters/api"
	"trialdash/adapters/excel"
	"trialdash/adapters/postgres"
	"trialdash/domain/core"
	"trialdash/internal"
	internalapi "trialdash/internal/api"
	"trialdash/internal/config"
	"trialdash/internal/dataset"
	"trialdash/internal/errors"
	"trialdash/internal/migration"
	"trialdash/internal/testkit"
	"trialdash/ports"
	"trialdash/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const demoSeed = 42

// initDatabase connects to Postgres and applies the schema.
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		internal.DefaultLogger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := internal.NewDefaultLogger()
	studyID := core.StudyID(cfg.Upstream.StudyID)

	// Data source: the upstream backend when configured, otherwise the
	// built-in deterministic demo dataset.
	var source ports.VitalsSourcePort
	var quality ports.QualityMetricsPort
	if cfg.DemoMode() {
		logger.Info("No upstream backend configured, running in demo mode (%d subjects)", cfg.Upstream.DemoSubject)
		source = testkit.NewDemoSource(cfg.Upstream.DemoSubject, demoSeed)
	} else {
		client := api.NewClient(cfg.Upstream, logger)
		source = client
		quality = client
	}

	store := dataset.NewStore(logger)
	if err := store.LoadFromSource(context.Background(), source, studyID, initialSourceLabel(cfg)); err != nil {
		logger.Error("Initial dataset load failed: %v", err)
		os.Exit(1)
	}

	// A configured workbook overrides the fetched records but keeps the
	// upstream baselines, so simulated fills stay available.
	if cfg.Data.WorkbookFile != "" {
		reader := excel.NewDataReader(cfg.Data.WorkbookFile, cfg.Data.WorkbookSheet, logger)
		records, err := reader.ReadRecords()
		if err != nil {
			logger.Error("Workbook load failed: %v", err)
			os.Exit(1)
		}
		store.Replace(records, "workbook")
	}

	// Scenario persistence is optional: without DATABASE_URL the scenario
	// endpoints report 503 and everything else works.
	var scenarios ports.ScenarioRepositoryPort
	if cfg.PersistenceEnabled() {
		db, err := initDatabase(cfg)
		if err != nil {
			logger.Error("Failed to initialize database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		scenarios = postgres.NewScenarioRepository(db)
	} else if cfg.DemoMode() {
		logger.Warn("DATABASE_URL not set, keeping demo scenarios in memory")
		scenarios = testkit.NewInMemoryScenarioRepository()
	} else {
		logger.Warn("DATABASE_URL not set, scenario persistence disabled")
	}

	dashboard := ui.NewServer(ui.Config{
		Port:      cfg.Server.Port,
		GinMode:   cfg.Server.GinMode,
		StudyID:   studyID,
		ExportDir: cfg.Data.ExportDir,
	}, store, quality, logger)

	admin := internalapi.NewApp(internalapi.Config{
		Port:          cfg.Server.AdminPort,
		WorkbookSheet: cfg.Data.WorkbookSheet,
	}, store, scenarios, logger)

	var group errgroup.Group
	group.Go(func() error {
		return dashboard.Start(":" + cfg.Server.Port)
	})
	group.Go(func() error {
		logger.Info("Admin API listening on :%s", cfg.Server.AdminPort)
		return http.ListenAndServe(":"+cfg.Server.AdminPort, admin.Router())
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server exited: %v", err)
		os.Exit(1)
	}
}

func initialSourceLabel(cfg *config.Config) string {
	if cfg.DemoMode() {
		return "demo"
	}
	return "upstream"
}
