package exchange

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Aggregator drives a Fetcher over a range of days, one request at a time.
type Aggregator struct {
	fetcher Fetcher
	now     func() time.Time
	logger  *zap.Logger
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLogger attaches a logger for skipped dates.
func WithLogger(logger *zap.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator over fetcher.
func NewAggregator(fetcher Fetcher, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate fetches every date of q sequentially, oldest first. Dates that
// fail are left out; an empty result is not an error.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) []RawExchangeRecord {
	dates := q.Dates(a.now())
	records := make([]RawExchangeRecord, 0, len(dates))

	for _, day := range dates {
		date := day.Format(DateLayout)
		record, err := a.fetcher.Fetch(ctx, date)
		if err != nil {
			a.logger.Info("Skipping date without exchange data", zap.String("date", date), zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	a.logger.Debug("Exchange range aggregated",
		zap.Int("requested", len(dates)),
		zap.Int("received", len(records)))
	return records
}
