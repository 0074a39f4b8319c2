// Package main is the entry point of the retention-rate pipeline.
//
// The pipeline is a single-shot batch job:
//   - fetch student dataset records from the public statistics API
//   - aggregate retention rates per (school, year)
//   - write the result as CSV and Parquet into the output directory
//   - verify the Parquet file by reading it back
//
// Configuration comes from environment variables (and an optional .env
// file); there are no required command-line arguments. The process exits 0
// on success and 1 on any fetch, validation, or write failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/edustats/retention-pipeline/config"
	"github.com/edustats/retention-pipeline/internal/application/command"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/internal/infrastructure/external/cso"
	"github.com/edustats/retention-pipeline/internal/infrastructure/persistence/filestore"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("configuration failed", logger.Err(err))
		return 1
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	log = log.With(logger.RunID(runID))
	log.Info("starting run", logger.Endpoint(cfg.Dataset.URL))

	fetcher := cso.NewClient(cso.ClientConfig{
		URL:            cfg.Dataset.URL,
		Timeout:        cfg.Dataset.RequestTimeout,
		MaxRetries:     cfg.Dataset.MaxRetries,
		RetryBaseDelay: cfg.Dataset.RetryBaseDelay,
		Fields: cso.FieldMap{
			SchoolID: cfg.Dataset.Fields.SchoolID,
			Year:     cfg.Dataset.Fields.Year,
			Enrolled: cfg.Dataset.Fields.Enrolled,
			Retained: cfg.Dataset.Fields.Retained,
		},
		Logger: log,
	})

	store := filestore.NewStore(cfg.Output.Dir, cfg.Output.BaseName, log)
	handler := command.NewRunPipelineHandler(fetcher, store, log)

	result, err := handler.Handle(ctx, command.RunPipelineCommand{
		RunID:  runID,
		Verify: cfg.Output.Verify,
	})
	if err != nil {
		fields := []logger.Field{logger.Err(err)}
		if kind := shared.Kind(err); kind != nil {
			fields = append(fields, logger.String("kind", kind.Error()))
		}
		log.Error("run failed", fields...)
		return 1
	}

	log.Info("run complete",
		logger.RecordCount(result.RecordCount),
		logger.RowCount(result.RowCount),
		logger.Duration("total", result.Duration))
	return 0
}
