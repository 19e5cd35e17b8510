// Command feed runs one warehouse inventory ingestion: portal login, report
// discovery and download, field extraction, and a guarded append to the
// tracker spreadsheet. It is meant to be invoked once per evening by an
// external scheduler; exit status is non-zero on any unrecoverable error
// and zero on success or a skipped duplicate write.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"inventory_feed/pkg/core/config"
	"inventory_feed/pkg/core/extract"
	"inventory_feed/pkg/core/pipeline"
	"inventory_feed/pkg/core/portal"
	"inventory_feed/pkg/core/sheets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	configPath := flag.String("config", "", "path to YAML run configuration (optional)")
	flag.Parse()

	runID := uuid.NewString()
	fmt.Println("============================================================")
	fmt.Printf("Warehouse Inventory Feed - %s (run %s)\n", time.Now().UTC().Format(time.RFC3339), runID)
	fmt.Println("============================================================")

	if err := run(*configPath); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Println("Done.")
}

func run(configPath string) error {
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	session, err := portal.NewClient(cfg.Portal)
	if err != nil {
		return err
	}

	ctx := context.Background()

	svc, err := sheets.NewService(ctx, creds.ServiceAccountJSON, cfg.Sheet.SpreadsheetName)
	if err != nil {
		return err
	}
	detail, err := svc.Tab(cfg.Sheet.DetailTab)
	if err != nil {
		return err
	}
	dashboard, err := svc.Tab(cfg.Sheet.DashboardTab)
	if err != nil {
		return err
	}

	p := pipeline.New(session, extract.New(cfg.Extract), sheets.NewWriter(detail, dashboard), creds)
	return p.Run(ctx)
}
