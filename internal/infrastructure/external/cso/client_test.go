package cso

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := DefaultClientConfig(url)
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 1
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})
	return NewClient(cfg)
}

func TestFetchRecords_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"school_id": "SC001", "year": 2020, "enrolled": 100, "retained": 75},
			{"school_id": "SC002", "year": "2021", "enrolled": "50", "retained": null}
		]`)
	}))
	defer srv.Close()

	records, err := testClient(t, srv.URL).FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, retention.SchoolID("SC001"), records[0].SchoolID)
	assert.Equal(t, retention.Year(2020), records[0].Year)
	require.NotNil(t, records[0].Enrolled)
	assert.Equal(t, int64(100), *records[0].Enrolled)

	// String-encoded numerics are accepted, nulls stay nil.
	assert.Equal(t, retention.Year(2021), records[1].Year)
	require.NotNil(t, records[1].Enrolled)
	assert.Equal(t, int64(50), *records[1].Enrolled)
	assert.Nil(t, records[1].Retained)
}

func TestFetchRecords_CustomFieldNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"roll_number": "RN9", "academic_year": 2019, "intake": 40, "still_enrolled": 30}]`)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.MaxRetries = 1
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})
	cfg.Fields = FieldMap{
		SchoolID: "roll_number",
		Year:     "academic_year",
		Enrolled: "intake",
		Retained: "still_enrolled",
	}

	records, err := NewClient(cfg).FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, retention.SchoolID("RN9"), records[0].SchoolID)
	require.NotNil(t, records[0].Retained)
	assert.Equal(t, int64(30), *records[0].Retained)
}

func TestFetchRecords_NonSuccessStatusIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNetwork))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchRecords_UnreachableHostIsNetworkError(t *testing.T) {
	_, err := testClient(t, "http://127.0.0.1:1").FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNetwork))
}

func TestFetchRecords_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 1
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})

	_, err := NewClient(cfg).FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNetwork))
}

func TestFetchRecords_BadBodyIsFormatError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "school_id,year\nSC001,2020"},
		{"object instead of array", `{"school_id": "SC001"}`},
		{"array of scalars", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL).FetchRecords(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrFormat))
		})
	}
}

func TestFetchRecords_UnusableFieldIsValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"school_id": "SC001", "year": 2020, "enrolled": "many", "retained": 5}]`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Contains(t, err.Error(), "record 0")
	assert.Contains(t, err.Error(), "enrolled")
}

func TestFetchRecords_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[{"school_id": "SC001", "year": 2020, "enrolled": 10, "retained": 5}]`)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = time.Millisecond
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})

	records, err := NewClient(cfg).FetchRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRecords_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = time.Millisecond
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})

	_, err := NewClient(cfg).FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNetwork))
	assert.Equal(t, int32(1), calls.Load())
}
