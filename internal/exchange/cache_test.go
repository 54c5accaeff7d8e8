package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCachingFetcher(next Fetcher, cache Cache) *CachingFetcher {
	f := NewCachingFetcher(next, cache, time.Hour, nil, nil)
	f.now = func() time.Time { return fixedNow }
	return f
}

func TestCachingFetcherServesPastDatesFromCache(t *testing.T) {
	next := newStubFetcher()
	next.records["01.03.2024"] = RawExchangeRecord{
		Date:         "01.03.2024",
		ExchangeRate: []RawRate{{Currency: "USD", SaleRateNB: dec(t, "38.4"), PurchaseRateNB: dec(t, "38.3")}},
	}
	cache := newMemoryCache()
	f := newTestCachingFetcher(next, cache)

	first, err := f.Fetch(context.Background(), "01.03.2024")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), "01.03.2024")
	require.NoError(t, err)

	assert.Equal(t, []string{"01.03.2024"}, next.Calls())
	assert.Contains(t, cache.entries, "exchange:rates:01.03.2024")
	assert.Equal(t, first.Date, second.Date)
	require.Len(t, second.ExchangeRate, 1)
	assert.False(t, second.ExchangeRate[0].SaleRate.Valid)
	assert.Equal(t, "38.4", second.ExchangeRate[0].SaleRateNB.Decimal.String())
}

func TestCachingFetcherNeverCachesToday(t *testing.T) {
	next := newStubFetcher()
	cache := newMemoryCache()
	f := newTestCachingFetcher(next, cache)
	today := fixedNow.Format(DateLayout)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), today)
		require.NoError(t, err)
	}

	assert.Len(t, next.Calls(), 2)
	assert.Empty(t, cache.entries)
}

func TestCachingFetcherDoesNotCacheFailures(t *testing.T) {
	next := newStubFetcher()
	next.fail["28.02.2024"] = true
	cache := newMemoryCache()
	f := newTestCachingFetcher(next, cache)

	_, err := f.Fetch(context.Background(), "28.02.2024")
	require.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestCachingFetcherFallsThroughOnCacheError(t *testing.T) {
	next := newStubFetcher()
	cache := newMemoryCache()
	cache.getErr = errors.New("connection reset")
	f := newTestCachingFetcher(next, cache)

	record, err := f.Fetch(context.Background(), "28.02.2024")
	require.NoError(t, err)
	assert.Equal(t, "28.02.2024", record.Date)
	assert.Len(t, next.Calls(), 1)
}
