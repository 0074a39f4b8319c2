package filestore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

// csvHeader is the fixed output header; the column order is part of the
// file contract.
var csvHeader = []string{"school_id", "year", "retention_rate"}

// WriteCSV writes the dataset as CSV. A nil rate becomes an empty cell.
// Output is byte-identical across runs for identical input.
func (s *Store) WriteCSV(ds *retention.Dataset) error {
	err := s.writeAtomic("WriteCSV", s.CSVPath(), func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader); err != nil {
			return err
		}
		for _, row := range ds.Rows() {
			rate := ""
			if row.Rate != nil {
				rate = strconv.FormatFloat(*row.Rate, 'f', -1, 64)
			}
			record := []string{row.SchoolID.String(), strconv.Itoa(int(row.Year)), rate}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return err
	}

	s.logger.Info("csv written", logger.Path(s.CSVPath()), logger.RowCount(ds.Len()))
	return nil
}

// ReadCSV reads a previously written CSV file back into a dataset.
// Used by round-trip checks.
func (s *Store) ReadCSV() (*retention.Dataset, error) {
	f, err := os.Open(s.CSVPath())
	if err != nil {
		return nil, shared.WrapError("read", "ReadCSV", shared.ErrIO, "open csv", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, shared.WrapError("read", "ReadCSV", shared.ErrFormat, "read header", err)
	}
	if len(header) != len(csvHeader) || header[0] != csvHeader[0] || header[1] != csvHeader[1] || header[2] != csvHeader[2] {
		return nil, shared.NewPipelineError("read", "ReadCSV", shared.ErrFormat,
			fmt.Sprintf("unexpected header %v", header))
	}

	var rows []retention.Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, shared.WrapError("read", "ReadCSV", shared.ErrFormat, "read row", err)
		}

		year, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, shared.WrapError("read", "ReadCSV", shared.ErrFormat, "parse year", err)
		}

		row := retention.Row{
			SchoolID: retention.SchoolID(record[0]),
			Year:     retention.Year(year),
		}
		if record[2] != "" {
			rate, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return nil, shared.WrapError("read", "ReadCSV", shared.ErrFormat, "parse rate", err)
			}
			row.Rate = &rate
		}
		rows = append(rows, row)
	}

	return retention.NewDataset(rows), nil
}
