package cso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edustats/retention-pipeline/internal/domain/retention"
	"github.com/edustats/retention-pipeline/internal/domain/shared"
	"github.com/edustats/retention-pipeline/pkg/logger"
	"github.com/edustats/retention-pipeline/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the dataset API client.
type ClientConfig struct {
	// URL is the full dataset endpoint
	URL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// MaxRetries is the total number of attempts. Bounded retry with
	// backoff is an addition beyond the required single-fetch behavior;
	// set it to 1 to disable.
	MaxRetries int

	// RetryBaseDelay is the delay before the first retry
	RetryBaseDelay time.Duration

	// Fields maps the logical record fields to the API's JSON field names
	Fields FieldMap

	// Logger for structured logging
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:            url,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		Fields:         DefaultFieldMap(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches the student dataset from the public API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *logger.Logger
	retrier    *retry.Retrier
	mapper     *Mapper
}

// NewClient creates a new dataset API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Fields == (FieldMap{}) {
		config.Fields = DefaultFieldMap()
	}

	log := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log,
		retrier: retry.New(
			retry.WithMaxAttempts(config.MaxRetries),
			retry.WithInitialDelay(config.RetryBaseDelay),
			retry.WithMaxDelay(10*time.Second),
			retry.WithJitter(0.2),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("dataset fetch retry",
					logger.Int("attempt", attempt),
					logger.Err(err),
					logger.Duration("delay", delay))
			}),
		),
		mapper: NewMapper(config.Fields),
	}
}

// FetchRecords issues the GET request and returns the validated record
// sequence. Failures are classified per the pipeline taxonomy: transport
// problems and non-2xx statuses are network errors, an undecodable body is
// a format error, unusable field values are validation errors.
func (c *Client) FetchRecords(ctx context.Context) ([]retention.RawRecord, error) {
	c.logger.Info("fetching dataset", logger.Endpoint(c.config.URL))

	var body []byte
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var opErr error
		body, opErr = c.doSingleRequest(ctx)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	var dtos []RecordDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, shared.WrapError("fetch", "Decode", shared.ErrFormat,
			"response body is not a JSON record array", err)
	}

	records, err := c.mapper.MapRecords(dtos)
	if err != nil {
		return nil, err
	}

	c.logger.Info("dataset fetched", logger.RecordCount(len(records)))
	return records, nil
}

// doSingleRequest performs one HTTP round trip and returns the body.
// Server-side failures come back retryable, client-side ones permanent.
func (c *Client) doSingleRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, retry.Permanent(shared.WrapError("fetch", "Get", shared.ErrInvalidInput,
			"create request", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers DNS failures, refused connections, and client timeouts.
		return nil, retry.Retryable(shared.WrapError("fetch", "Get", shared.ErrNetwork,
			"http request", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Retryable(shared.WrapError("fetch", "Get", shared.ErrNetwork,
			"read response", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := shared.NewPipelineError("fetch", "Get", shared.ErrNetwork,
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, c.config.URL))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.Retryable(apiErr)
		}
		return nil, retry.Permanent(apiErr)
	}

	return body, nil
}
