package filestore

import (
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

// parquetRow is the columnar schema of the output dataset. It mirrors the
// CSV columns with typed values; retention_rate is optional to carry the
// null rate of zero-enrollment groups.
type parquetRow struct {
	SchoolID      string   `parquet:"school_id,dict"`
	Year          int32    `parquet:"year"`
	RetentionRate *float64 `parquet:"retention_rate,optional"`
}

// WriteParquet writes the dataset as a Parquet file with the same logical
// rows as the CSV output.
func (s *Store) WriteParquet(ds *retention.Dataset) error {
	rows := make([]parquetRow, 0, ds.Len())
	for _, row := range ds.Rows() {
		rows = append(rows, parquetRow{
			SchoolID:      row.SchoolID.String(),
			Year:          int32(row.Year),
			RetentionRate: row.Rate,
		})
	}

	err := s.writeAtomic("WriteParquet", s.ParquetPath(), func(f *os.File) error {
		w := parquet.NewGenericWriter[parquetRow](f)
		if _, err := w.Write(rows); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
	if err != nil {
		return err
	}

	s.logger.Info("parquet written", logger.Path(s.ParquetPath()), logger.RowCount(ds.Len()))
	return nil
}

// ReadParquet reads a previously written Parquet file back into a dataset.
// Used by the post-write verification step and round-trip checks.
func (s *Store) ReadParquet() (*retention.Dataset, error) {
	rows, err := parquet.ReadFile[parquetRow](s.ParquetPath())
	if err != nil {
		return nil, shared.WrapError("read", "ReadParquet", shared.ErrIO, "read parquet", err)
	}

	out := make([]retention.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, retention.Row{
			SchoolID: retention.SchoolID(row.SchoolID),
			Year:     retention.Year(row.Year),
			Rate:     row.RetentionRate,
		})
	}

	return retention.NewDataset(out), nil
}
