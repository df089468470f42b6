// Package bot serves the aggregator, scanners and listings watcher over Telegram.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/scanner"
	"github.com/hovsthvost89-eng/crypto-bot/writer"
	"github.com/sirupsen/logrus"
)

type Aggregator interface {
	GetAllNames() []exchange.Exchange
	GetAllStats(ctx context.Context, assets []exchange.Asset) []*exchange.TickerSnapshot
	TestExchange(ctx context.Context, exchangeName string, asset exchange.Asset) (*exchange.ProbeResult, error)
}

type MoonersFinder interface {
	GetMooners(ctx context.Context, minGrowth float64) ([]scanner.CoinSummary, error)
}

type NewCoinsFinder interface {
	GetNewCoins(ctx context.Context) ([]scanner.CoinSummary, error)
}

type ListingsReporter interface {
	FormatListingsMessage() string
}

// Commands renders the reply of every chat command. It knows nothing about the transport.
type Commands struct {
	Aggregator      Aggregator
	MoonersScanner  MoonersFinder
	NewCoinsScanner NewCoinsFinder
	Watcher         ListingsReporter
	Assets          []exchange.Asset
	MinGrowth       float64
	now             func() time.Time
}

func (cmd *Commands) clock() time.Time {
	if cmd.now != nil {
		return cmd.now()
	}
	return time.Now()
}

func (cmd *Commands) Help() string {
	var b strings.Builder
	b.WriteString("👋 *Crypto quotes bot*\n\n")
	b.WriteString("/stats - average price per coin\n")
	b.WriteString("/table - every exchange and coin\n")
	b.WriteString("/mooners [pct] - coins up at least pct% in 24h\n")
	b.WriteString("/newcoins - thinly traded small caps\n")
	b.WriteString("/listings - new listings of the last day\n")
	b.WriteString("/test <exchange> - check a single exchange\n")
	return b.String()
}

func (cmd *Commands) Loading() string {
	return writer.FormatLoadingMessage(cmd.Aggregator.GetAllNames(), cmd.Assets)
}

func (cmd *Commands) Stats(ctx context.Context) string {
	return writer.FormatCompactStats(cmd.Aggregator.GetAllStats(ctx, cmd.Assets))
}

func (cmd *Commands) Table(ctx context.Context) string {
	return writer.FormatTableStats(cmd.Aggregator.GetAllStats(ctx, cmd.Assets), cmd.clock())
}

// Mooners uses the first argument as the growth threshold when it parses as a positive number.
func (cmd *Commands) Mooners(ctx context.Context, args []string) string {
	minGrowth := cmd.MinGrowth
	if minGrowth <= 0 {
		minGrowth = scanner.DefaultMinGrowth
	}
	if len(args) > 0 {
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
		if err != nil || parsed <= 0 {
			return "❌ Growth must be a positive number, eg. /mooners 15"
		}
		minGrowth = parsed
	}
	coins, err := cmd.MoonersScanner.GetMooners(ctx, minGrowth)
	if err != nil {
		logrus.WithError(err).Error("Failed to find mooners")
		return writer.FormatError("exchanges did not answer, try again later")
	}
	return writer.FormatMooners(coins, minGrowth)
}

func (cmd *Commands) NewCoins(ctx context.Context) string {
	coins, err := cmd.NewCoinsScanner.GetNewCoins(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to find new coins")
		return writer.FormatError("exchanges did not answer, try again later")
	}
	return writer.FormatNewCoins(coins)
}

func (cmd *Commands) RecentListings() string {
	return cmd.Watcher.FormatListingsMessage()
}

// Probe fetches every asset from one exchange, one after another, and reports timings.
func (cmd *Commands) Probe(ctx context.Context, args []string) string {
	if len(args) == 0 {
		names := cmd.Aggregator.GetAllNames()
		list := make([]string, len(names))
		for i, name := range names {
			list[i] = string(name)
		}
		return "❌ Which exchange? One of: " + strings.Join(list, ", ")
	}
	var results []*exchange.ProbeResult
	for _, asset := range cmd.Assets {
		result, err := cmd.Aggregator.TestExchange(ctx, args[0], asset)
		if err != nil {
			return "❌ " + err.Error()
		}
		results = append(results, result)
	}
	return writer.FormatProbe(results)
}
