// Command exchange prints PrivatBank EUR/USD exchange rates for the last N
// days, optionally including one more currency.
//
// Usage:
//
//	exchange <days> [currency]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/config"
	"github.com/Tyrowin/exchange-chat/internal/exchange"
	"github.com/Tyrowin/exchange-chat/internal/logger"
)

// ErrUsage is returned when the argument count is wrong.
var ErrUsage = errors.New("usage: exchange <days> [currency]")

type options struct {
	days     int
	currency string
}

func parseArgs(args []string) (options, error) {
	if len(args) < 1 || len(args) > 2 {
		return options{}, ErrUsage
	}

	days, err := strconv.Atoi(args[0])
	if err != nil {
		return options{}, fmt.Errorf("%w: %q is not a number", exchange.ErrInvalidDays, args[0])
	}
	if _, err := exchange.NewQuery(days); err != nil {
		return options{}, fmt.Errorf("%w: got %d", err, days)
	}

	opts := options{days: days}
	if len(args) == 2 {
		opts.currency = strings.ToUpper(strings.TrimSpace(args[1]))
	}
	return opts, nil
}

func run(ctx context.Context, args []string, fetcher exchange.Fetcher, out io.Writer) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	records := exchange.NewAggregator(fetcher).Aggregate(ctx, exchange.Query{Days: opts.days})
	doc, err := exchange.Format(records, opts.currency)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(doc))
	return err
}

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Log.Level, "console")
	defer func() {
		_ = log.Sync()
	}()

	fetcher := exchange.NewHTTPFetcher(cfg.Exchange.APIURL, cfg.Exchange.RequestTimeout, nil, log.Named("fetcher"))

	if err := run(context.Background(), os.Args[1:], fetcher, os.Stdout); err != nil {
		log.Error("Exchange lookup failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(2)
	}
}
