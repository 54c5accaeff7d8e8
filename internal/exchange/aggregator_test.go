package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)

func TestQueryDates(t *testing.T) {
	dates := Query{Days: 4}.Dates(fixedNow)

	require.Len(t, dates, 4)
	got := make([]string, len(dates))
	for i, d := range dates {
		got[i] = d.Format(DateLayout)
	}
	// Crosses the February boundary of a leap year.
	assert.Equal(t, []string{"28.02.2024", "29.02.2024", "01.03.2024", "02.03.2024"}, got)
	assert.Empty(t, Query{}.Dates(fixedNow))
}

func TestNewQuery(t *testing.T) {
	for _, days := range []int{1, 5, MaxDays} {
		q, err := NewQuery(days)
		require.NoError(t, err)
		assert.Equal(t, days, q.Days)
	}
	for _, days := range []int{-1, 0, MaxDays + 1} {
		_, err := NewQuery(days)
		assert.ErrorIs(t, err, ErrInvalidDays)
	}
	assert.Equal(t, 1, Today().Days)
}

func TestAggregateIssuesOneFetchPerDayOldestFirst(t *testing.T) {
	for n := 1; n <= MaxDays; n++ {
		fetcher := newStubFetcher()
		agg := NewAggregator(fetcher, WithClock(func() time.Time { return fixedNow }))

		records := agg.Aggregate(context.Background(), Query{Days: n})

		calls := fetcher.Calls()
		require.Len(t, calls, n, "days=%d", n)
		require.Len(t, records, n)
		assert.Equal(t, fixedNow.Format(DateLayout), calls[n-1])

		seen := map[string]bool{}
		for i, date := range calls {
			assert.False(t, seen[date], "duplicate date %s", date)
			seen[date] = true
			want := fixedNow.AddDate(0, 0, -(n - 1 - i)).Format(DateLayout)
			assert.Equal(t, want, date)
			assert.Equal(t, date, records[i].Date)
		}
	}
}

func TestAggregateSkipsFailedDates(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.fail["01.03.2024"] = true
	agg := NewAggregator(fetcher, WithClock(func() time.Time { return fixedNow }))

	records := agg.Aggregate(context.Background(), Query{Days: 3})

	assert.Len(t, fetcher.Calls(), 3)
	require.Len(t, records, 2)
	assert.Equal(t, "29.02.2024", records[0].Date)
	assert.Equal(t, "02.03.2024", records[1].Date)
}

func TestAggregateAllFailedIsEmpty(t *testing.T) {
	fetcher := newStubFetcher()
	for _, d := range (Query{Days: 2}).Dates(fixedNow) {
		fetcher.fail[d.Format(DateLayout)] = true
	}
	agg := NewAggregator(fetcher, WithClock(func() time.Time { return fixedNow }))

	records := agg.Aggregate(context.Background(), Query{Days: 2})

	assert.NotNil(t, records)
	assert.Empty(t, records)

	out, err := Format(records, "")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFetchErrorClassification(t *testing.T) {
	err := error(&FetchError{Kind: FailureTimeout, Date: "01.01.2024", Err: context.DeadlineExceeded})

	assert.True(t, IsFetchFailure(err, FailureTimeout))
	assert.False(t, IsFetchFailure(err, FailureDecode))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "timeout")

	status := &FetchError{Kind: FailureStatus, Date: "01.01.2024", StatusCode: 503}
	assert.Contains(t, status.Error(), "503")
}
