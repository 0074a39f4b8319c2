package filestore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

func ratep(v float64) *float64 { return &v }

func testDataset() *retention.Dataset {
	return retention.NewDataset([]retention.Row{
		{SchoolID: "SC001", Year: 2020, Rate: ratep(0.75)},
		{SchoolID: "SC002", Year: 2020, Rate: nil},
		{SchoolID: "SC001", Year: 2021, Rate: ratep(1.0)},
	})
}

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "processed_student_data", logger.New(logger.Options{Output: io.Discard}))
}

func TestWriteCSV_ContentAndHeader(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.WriteCSV(testDataset()))

	data, err := os.ReadFile(store.CSVPath())
	require.NoError(t, err)

	want := "school_id,year,retention_rate\n" +
		"SC001,2020,0.75\n" +
		"SC002,2020,\n" +
		"SC001,2021,1\n"
	assert.Equal(t, want, string(data))
}

func TestWriteCSV_Deterministic(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.WriteCSV(testDataset()))
	first, err := os.ReadFile(store.CSVPath())
	require.NoError(t, err)

	require.NoError(t, store.WriteCSV(testDataset()))
	second, err := os.ReadFile(store.CSVPath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCSV_RoundTrip(t *testing.T) {
	store := testStore(t)
	ds := testDataset()
	require.NoError(t, store.WriteCSV(ds))

	loaded, err := store.ReadCSV()
	require.NoError(t, err)
	assert.True(t, ds.Equal(loaded))
}

func TestParquet_RoundTrip(t *testing.T) {
	store := testStore(t)
	ds := testDataset()
	require.NoError(t, store.WriteParquet(ds))

	loaded, err := store.ReadParquet()
	require.NoError(t, err)
	assert.True(t, ds.Equal(loaded))
}

func TestFormats_LogicalEquivalence(t *testing.T) {
	store := testStore(t)
	ds := testDataset()
	require.NoError(t, store.WriteCSV(ds))
	require.NoError(t, store.WriteParquet(ds))

	fromCSV, err := store.ReadCSV()
	require.NoError(t, err)
	fromParquet, err := store.ReadParquet()
	require.NoError(t, err)

	assert.True(t, fromCSV.Equal(fromParquet))
}

func TestWrite_EmptyDataset(t *testing.T) {
	store := testStore(t)
	empty := retention.NewDataset(nil)

	require.NoError(t, store.WriteCSV(empty))
	require.NoError(t, store.WriteParquet(empty))

	data, err := os.ReadFile(store.CSVPath())
	require.NoError(t, err)
	assert.Equal(t, "school_id,year,retention_rate\n", string(data))

	loaded, err := store.ReadParquet()
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestWrite_FailureLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	// Occupy the output directory path with a regular file so MkdirAll
	// and CreateTemp fail.
	blocked := filepath.Join(dir, "transformed")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	store := NewStore(blocked, "processed_student_data", logger.New(logger.Options{Output: io.Discard}))

	err := store.WriteCSV(testDataset())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrIO))

	_, statErr := os.Stat(store.CSVPath())
	assert.Error(t, statErr)
}

func TestWrite_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "processed_student_data", logger.New(logger.Options{Output: io.Discard}))

	require.NoError(t, store.WriteCSV(testDataset()))
	require.NoError(t, store.WriteParquet(testDataset()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"processed_student_data.csv", "processed_student_data.parquet"}, names)
}

func TestWriteCSV_OverwritesPreviousRun(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.WriteCSV(testDataset()))

	smaller := retention.NewDataset([]retention.Row{
		{SchoolID: "SC009", Year: 2022, Rate: ratep(0.5)},
	})
	require.NoError(t, store.WriteCSV(smaller))

	loaded, err := store.ReadCSV()
	require.NoError(t, err)
	assert.True(t, smaller.Equal(loaded))
}
