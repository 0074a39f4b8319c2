// Package command contains the pipeline's write operations.
// A single command drives the whole batch: fetch, aggregate, write, verify.
package command

import (
	"context"
	"time"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
	"github.com/edustats/retention-pipeline/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN PIPELINE COMMAND
// Executes one batch run: fetch records, aggregate retention rates, write
// CSV and Parquet, optionally verify the Parquet read-back.
// ══════════════════════════════════════════════════════════════════════════════

// RecordFetcher fetches the raw record sequence from the dataset API.
type RecordFetcher interface {
	FetchRecords(ctx context.Context) ([]retention.RawRecord, error)
}

// DatasetWriter persists the output dataset in both formats.
type DatasetWriter interface {
	WriteCSV(ds *retention.Dataset) error
	WriteParquet(ds *retention.Dataset) error
	ReadParquet() (*retention.Dataset, error)
}

// RunPipelineCommand configures a single run.
type RunPipelineCommand struct {
	// RunID identifies the run in logs.
	RunID string

	// Verify re-reads the Parquet file after writing and compares it
	// against the in-memory dataset.
	Verify bool
}

// RunPipelineResult describes a completed run.
type RunPipelineResult struct {
	// RecordCount is the number of raw records fetched.
	RecordCount int

	// RowCount is the number of retention rows written.
	RowCount int

	// Duration is the total wall-clock time of the run.
	Duration time.Duration
}

// RunPipelineHandler orchestrates the stages. Control flow is strictly
// linear; the first error aborts the run and nothing written so far is
// replaced by partial output.
type RunPipelineHandler struct {
	fetcher RecordFetcher
	writer  DatasetWriter
	logger  *logger.Logger
}

// NewRunPipelineHandler creates the handler.
func NewRunPipelineHandler(fetcher RecordFetcher, writer DatasetWriter, log *logger.Logger) *RunPipelineHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RunPipelineHandler{fetcher: fetcher, writer: writer, logger: log}
}

// Handle executes the run.
func (h *RunPipelineHandler) Handle(ctx context.Context, cmd RunPipelineCommand) (*RunPipelineResult, error) {
	log := h.logger.With(logger.RunID(cmd.RunID))
	total := timeutil.NewStopwatch()

	records, elapsed, err := timeutil.MeasureValue(func() ([]retention.RawRecord, error) {
		return h.fetcher.FetchRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	log.Info("fetch complete", logger.Stage("fetch"),
		logger.RecordCount(len(records)), logger.Latency(elapsed))

	ds, elapsed, err := timeutil.MeasureValue(func() (*retention.Dataset, error) {
		return retention.Aggregate(records)
	})
	if err != nil {
		return nil, err
	}
	log.Info("aggregation complete", logger.Stage("aggregate"),
		logger.RowCount(ds.Len()), logger.Latency(elapsed))

	elapsed, err = timeutil.Measure(func() error {
		if err := h.writer.WriteCSV(ds); err != nil {
			return err
		}
		return h.writer.WriteParquet(ds)
	})
	if err != nil {
		return nil, err
	}
	log.Info("outputs written", logger.Stage("write"), logger.Latency(elapsed))

	if cmd.Verify {
		if err := h.verify(ds); err != nil {
			return nil, err
		}
		log.Info("parquet verified", logger.Stage("verify"))
	}

	return &RunPipelineResult{
		RecordCount: len(records),
		RowCount:    ds.Len(),
		Duration:    total.Elapsed(),
	}, nil
}

// verify re-reads the Parquet output and compares logical rows against the
// in-memory dataset.
func (h *RunPipelineHandler) verify(ds *retention.Dataset) error {
	loaded, err := h.writer.ReadParquet()
	if err != nil {
		return err
	}
	if !ds.Equal(loaded) {
		return shared.NewPipelineError("verify", "ReadBack", shared.ErrIO,
			"parquet read-back does not match written dataset")
	}
	return nil
}
