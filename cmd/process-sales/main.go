// Command process-sales runs the combined pass: for every message under
// the configured label it appends any missing sale row and writes any
// missing rendered snapshot, then persists the render ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/sales-tracker/internal/config"
	"github.com/dvloznov/sales-tracker/internal/drivestore"
	"github.com/dvloznov/sales-tracker/internal/gmailsource"
	"github.com/dvloznov/sales-tracker/internal/logger"
	"github.com/dvloznov/sales-tracker/internal/processor"
	"github.com/dvloznov/sales-tracker/internal/render"
	"github.com/dvloznov/sales-tracker/internal/sheetstore"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", "config.yaml", "Path to the deployment config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Bounded so a stuck remote dependency cannot hang a scheduled run.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	source, err := gmailsource.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gmail client")
	}
	table, err := sheetstore.NewClient(ctx, cfg.Sheets.SpreadsheetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Sheets client")
	}
	files, err := drivestore.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Drive client")
	}

	var converter processor.Converter
	if cfg.Render.Format == config.FormatPDF {
		printer, err := render.NewPDFPrinter()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start PDF printer")
		}
		defer printer.Close()
		converter = printer
	}

	p := processor.New(cfg, source, table, files, render.New(nil), converter)
	summary, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}

	fmt.Println(summary)
}
