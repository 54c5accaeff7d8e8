package exchange

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.NullDecimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return decimal.NewNullDecimal(d)
}

// stubFetcher records requested dates and answers from a table.
type stubFetcher struct {
	mu      sync.Mutex
	calls   []string
	records map[string]RawExchangeRecord
	fail    map[string]bool
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		records: map[string]RawExchangeRecord{},
		fail:    map[string]bool{},
	}
}

func (s *stubFetcher) Fetch(_ context.Context, date string) (RawExchangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, date)

	if s.fail[date] {
		return RawExchangeRecord{}, &FetchError{Kind: FailureStatus, Date: date, StatusCode: 500}
	}
	if record, ok := s.records[date]; ok {
		return record, nil
	}
	return RawExchangeRecord{Date: date}, nil
}

func (s *stubFetcher) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// memoryCache is a map-backed Cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}
