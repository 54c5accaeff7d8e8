package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/metrics"
)

// Fetcher retrieves the exchange record for a single date (DD.MM.YYYY).
// Any error means "no data for this date".
type Fetcher interface {
	Fetch(ctx context.Context, date string) (RawExchangeRecord, error)
}

// HTTPFetcher queries the PrivatBank exchange_rates endpoint.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewHTTPFetcher creates a fetcher for baseURL whose requests give up after timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger,
	}
}

// Fetch issues one GET for date and decodes the body on HTTP 200.
func (f *HTTPFetcher) Fetch(ctx context.Context, date string) (RawExchangeRecord, error) {
	start := time.Now()
	record, err := f.fetch(ctx, date)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		f.metrics.ObserveFetch(metrics.OutcomeFailure, elapsed)
		f.logger.Debug("Exchange rate request failed", zap.String("date", date), zap.Error(err))
		return RawExchangeRecord{}, err
	}
	f.metrics.ObserveFetch(metrics.OutcomeSuccess, elapsed)
	return record, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, date string) (RawExchangeRecord, error) {
	reqURL, err := f.requestURL(date)
	if err != nil {
		return RawExchangeRecord{}, &FetchError{Kind: FailureTransport, Date: date, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return RawExchangeRecord{}, &FetchError{Kind: FailureTransport, Date: date, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return RawExchangeRecord{}, &FetchError{Kind: classifyTransportError(err), Date: date, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return RawExchangeRecord{}, &FetchError{Kind: FailureStatus, Date: date, StatusCode: resp.StatusCode}
	}

	var record RawExchangeRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return RawExchangeRecord{}, &FetchError{Kind: classifyDecodeError(err), Date: date, Err: err}
	}
	if record.Date == "" {
		record.Date = date
	}
	return record, nil
}

func (f *HTTPFetcher) requestURL(date string) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	q := u.Query()
	q.Set("date", date)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}

// classifyDecodeError separates a body read cut short by the client timeout
// from a malformed payload.
func classifyDecodeError(err error) FailureKind {
	if classifyTransportError(err) == FailureTimeout {
		return FailureTimeout
	}
	return FailureDecode
}
