// Package filestore persists the output dataset as CSV and Parquet files.
// Writes are all-or-nothing: content goes to a temporary file in the target
// directory which is fsynced and renamed into place, so a failed run never
// leaves a partial file that could be mistaken for a complete one.
package filestore

import (
	"os"
	"path/filepath"

	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

// Store writes and reads the two output formats under one directory.
type Store struct {
	dir      string
	baseName string
	logger   *logger.Logger
}

// NewStore creates a Store writing <dir>/<baseName>.csv and
// <dir>/<baseName>.parquet.
func NewStore(dir, baseName string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{dir: dir, baseName: baseName, logger: log}
}

// CSVPath returns the path of the CSV output file.
func (s *Store) CSVPath() string {
	return filepath.Join(s.dir, s.baseName+".csv")
}

// ParquetPath returns the path of the Parquet output file.
func (s *Store) ParquetPath() string {
	return filepath.Join(s.dir, s.baseName+".parquet")
}

// writeAtomic writes via fn into a temp file next to path and renames it
// into place on success. Any failure removes the temp file and surfaces as
// an IO error.
func (s *Store) writeAtomic(op, path string, fn func(*os.File) error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return shared.WrapError("write", op, shared.ErrIO, "create output directory", err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return shared.WrapError("write", op, shared.ErrIO, "create temp file", err)
	}
	tmpPath := tmp.Name()

	cleanup := func(stage string, cause error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return shared.WrapError("write", op, shared.ErrIO, stage, cause)
	}

	if err := fn(tmp); err != nil {
		return cleanup("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return shared.WrapError("write", op, shared.ErrIO, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return shared.WrapError("write", op, shared.ErrIO, "rename into place", err)
	}

	return nil
}
