// Command export writes a per-subject trajectory workbook for one vitals
// field without starting the server. Records come from the workbook named
// by WORKBOOK_FILE, or from the deterministic demo dataset when unset.
package main

import (
	"context"
	"log"
	"os"

	"trialdash/adapters/excel"
	"trialdash/adapters/views"
	"trialdash/domain/core"
	"trialdash/domain/trial"
	"trialdash/internal"
	"trialdash/internal/config"
	"trialdash/internal/testkit"

	"github.com/joho/godotenv"
)

const demoSeed = 42

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 3 {
		log.Fatal("Usage: export <field> <output.xlsx>")
	}

	field, err := trial.ParseVitalsField(os.Args[1])
	if err != nil {
		log.Fatalf("Unknown field %q", os.Args[1])
	}
	outPath := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var records []trial.VitalsRecord
	if cfg.Data.WorkbookFile != "" {
		reader := excel.NewDataReader(cfg.Data.WorkbookFile, cfg.Data.WorkbookSheet, logger)
		records, err = reader.ReadRecords()
		if err != nil {
			log.Fatalf("Workbook load failed: %v", err)
		}
	} else {
		source := testkit.NewDemoSource(cfg.Upstream.DemoSubject, demoSeed)
		records, err = source.FetchRecords(context.Background(), core.StudyID(cfg.Upstream.StudyID))
		if err != nil {
			log.Fatalf("Demo dataset generation failed: %v", err)
		}
	}

	table := views.BuildTrajectories(records, field, views.DefaultTrajectorySubjects)
	if err := excel.WriteTrajectories(table, outPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Wrote %d subject rows across %d visits to %s", len(table.Rows), len(table.Visits), outPath)
}
