package server

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/audit"
	"github.com/Tyrowin/exchange-chat/internal/exchange"
	"github.com/Tyrowin/exchange-chat/internal/metrics"
)

// Chat protocol literals.
const (
	exchangeKeyword = "exchange"
	greetingText    = "Hello server"
	greetingReply   = "Hello all"
)

// CommandKind classifies an inbound chat line.
type CommandKind int

// Command kinds, in the order they are matched.
const (
	CommandChat CommandKind = iota
	CommandExchangeRange
	CommandExchangeToday
	CommandGreeting
)

func (k CommandKind) String() string {
	switch k {
	case CommandExchangeRange:
		return "exchange_range"
	case CommandExchangeToday:
		return "exchange_today"
	case CommandGreeting:
		return "greeting"
	default:
		return "chat"
	}
}

// Command is a parsed chat line.
type Command struct {
	Kind CommandKind
	Days int
	Text string
}

// ParseCommand classifies text. Matching is case-sensitive and splits on
// single spaces; anything that is not an exact command is plain chat.
func ParseCommand(text string) Command {
	parts := strings.Split(text, " ")
	if len(parts) == 2 && parts[0] == exchangeKeyword {
		if days, ok := parseDays(parts[1]); ok {
			return Command{Kind: CommandExchangeRange, Days: days, Text: text}
		}
	}

	switch text {
	case exchangeKeyword:
		return Command{Kind: CommandExchangeToday, Days: exchange.Today().Days, Text: text}
	case greetingText:
		return Command{Kind: CommandGreeting, Text: text}
	}
	return Command{Kind: CommandChat, Text: text}
}

// parseDays accepts an unsigned decimal integer in [1, exchange.MaxDays].
func parseDays(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	days, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if _, err := exchange.NewQuery(days); err != nil {
		return 0, false
	}
	return days, true
}

// Broadcaster delivers a message to every connected client.
type Broadcaster interface {
	Broadcast(payload []byte) int
}

// Router turns chat lines into broadcasts, running exchange lookups inline.
type Router struct {
	broadcaster Broadcaster
	aggregator  *exchange.Aggregator
	audit       audit.Recorder
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewRouter creates a Router. A nil recorder discards audit lines.
func NewRouter(b Broadcaster, agg *exchange.Aggregator, rec audit.Recorder, m *metrics.Metrics, logger *zap.Logger) *Router {
	if rec == nil {
		rec = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		broadcaster: b,
		aggregator:  agg,
		audit:       rec,
		metrics:     m,
		logger:      logger,
	}
}

// Dispatch handles one line sent by the client named sender. It blocks for
// the duration of any exchange lookup it triggers.
func (r *Router) Dispatch(ctx context.Context, sender, text string) {
	cmd := ParseCommand(text)
	r.metrics.ObserveCommand(cmd.Kind.String())

	switch cmd.Kind {
	case CommandExchangeRange, CommandExchangeToday:
		r.handleExchange(ctx, sender, cmd.Days)
	case CommandGreeting:
		r.broadcaster.Broadcast([]byte(greetingReply))
	default:
		r.broadcaster.Broadcast([]byte(sender + ": " + text))
	}
}

func (r *Router) handleExchange(ctx context.Context, sender string, days int) {
	r.audit.RecordExchange(sender, days)
	r.logger.Info("Exchange command received", zap.String("name", sender), zap.Int("days", days))

	records := r.aggregator.Aggregate(ctx, exchange.Query{Days: days})
	payload, err := exchange.Format(records, "")
	if err != nil {
		r.logger.Error("Failed to format exchange rates", zap.Error(err))
		return
	}

	r.broadcaster.Broadcast(payload)
}
