// Command migrate applies the scenario schema to a Postgres database.
// Intended for deployments that manage the database outside the service
// process; the server also migrates on startup when DATABASE_URL is set.
package main

import (
	"context"
	"log"
	"os"

	"trialdash/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(context.Background(), db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Schema version %s applied", runner.Version())
}
