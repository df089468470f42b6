package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/config"
	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/scanner"
	tele "gopkg.in/telebot.v4"
)

type fakeAggregator struct {
	assets []exchange.Asset
}

func (f *fakeAggregator) GetAllNames() []exchange.Exchange {
	return []exchange.Exchange{exchange.Binance, exchange.Kraken}
}

func (f *fakeAggregator) GetAllStats(ctx context.Context, assets []exchange.Asset) []*exchange.TickerSnapshot {
	f.assets = assets
	price := 100.0
	change := 1.0
	var rows []*exchange.TickerSnapshot
	for _, name := range f.GetAllNames() {
		for _, asset := range assets {
			rows = append(rows, &exchange.TickerSnapshot{Exchange: name, Asset: asset, Price: &price, ChangePct24h: &change})
		}
	}
	return rows
}

func (f *fakeAggregator) TestExchange(ctx context.Context, name string, asset exchange.Asset) (*exchange.ProbeResult, error) {
	if name != "kraken" {
		return nil, fmt.Errorf("unknown exchange %s", name)
	}
	price := 1.0
	return &exchange.ProbeResult{Exchange: exchange.Kraken, Asset: asset, Success: true,
		Snapshot: &exchange.TickerSnapshot{Price: &price}}, nil
}

type fakeScanners struct {
	minGrowth float64
	err       error
}

func (f *fakeScanners) GetMooners(ctx context.Context, minGrowth float64) ([]scanner.CoinSummary, error) {
	f.minGrowth = minGrowth
	if f.err != nil {
		return nil, f.err
	}
	return []scanner.CoinSummary{{Symbol: "PEPE", Exchange: exchange.Binance, Price: 0.00001, ChangePct: 42}}, nil
}

func (f *fakeScanners) GetNewCoins(ctx context.Context) ([]scanner.CoinSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []scanner.CoinSummary{{Symbol: "TON", Exchange: exchange.OKX, Price: 5, ChangePct: 3, Volume: 2000}}, nil
}

type fakeListings struct{}

func (fakeListings) FormatListingsMessage() string { return "listings!" }

func newCommands() (*Commands, *fakeAggregator, *fakeScanners) {
	aggregator := &fakeAggregator{}
	scanners := &fakeScanners{}
	return &Commands{
		Aggregator:      aggregator,
		MoonersScanner:  scanners,
		NewCoinsScanner: scanners,
		Watcher:         fakeListings{},
		Assets:          []exchange.Asset{exchange.BTC, exchange.TON},
		MinGrowth:       10,
		now:             func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) },
	}, aggregator, scanners
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("Stats", func(t *testing.T) {
		cmd, aggregator, _ := newCommands()
		msg := cmd.Stats(ctx)
		if len(aggregator.assets) != 2 {
			t.Fatalf("Configured assets not requested: %v", aggregator.assets)
		}
		if !strings.Contains(msg, "*BTC*: 100 USDT") || !strings.Contains(msg, "(2/2)") {
			t.Fatalf("Unexpected stats %q", msg)
		}
	})

	t.Run("Table", func(t *testing.T) {
		cmd, _, _ := newCommands()
		msg := cmd.Table(ctx)
		if !strings.Contains(msg, "kraken") || !strings.Contains(msg, "08:00:00") {
			t.Fatalf("Unexpected table %q", msg)
		}
	})

	t.Run("Mooners default threshold", func(t *testing.T) {
		cmd, _, scanners := newCommands()
		msg := cmd.Mooners(ctx, nil)
		if scanners.minGrowth != 10 || !strings.Contains(msg, "PEPE") {
			t.Fatalf("Unexpected mooners %v %q", scanners.minGrowth, msg)
		}
	})

	t.Run("Mooners custom threshold", func(t *testing.T) {
		cmd, _, scanners := newCommands()
		cmd.Mooners(ctx, []string{"25%"})
		if scanners.minGrowth != 25 {
			t.Fatalf("Expecting threshold 25, got %v", scanners.minGrowth)
		}
		if msg := cmd.Mooners(ctx, []string{"abc"}); !strings.HasPrefix(msg, "❌") {
			t.Fatalf("Expecting a usage error, got %q", msg)
		}
	})

	t.Run("scanner failure", func(t *testing.T) {
		cmd, _, scanners := newCommands()
		scanners.err = errors.New("all venues failed")
		if msg := cmd.NewCoins(ctx); !strings.Contains(msg, "Failed to load data") {
			t.Fatalf("Expecting a failure message, got %q", msg)
		}
		if msg := cmd.Mooners(ctx, nil); !strings.Contains(msg, "Failed to load data") {
			t.Fatalf("Expecting a failure message, got %q", msg)
		}
	})

	t.Run("RecentListings", func(t *testing.T) {
		cmd, _, _ := newCommands()
		if cmd.RecentListings() != "listings!" {
			t.Fatalf("Listings message not forwarded")
		}
	})

	t.Run("Probe", func(t *testing.T) {
		cmd, _, _ := newCommands()
		if msg := cmd.Probe(ctx, nil); !strings.Contains(msg, "binance, kraken") {
			t.Fatalf("Expecting the exchange list, got %q", msg)
		}
		if msg := cmd.Probe(ctx, []string{"kraken"}); !strings.Contains(msg, "2/2 assets answered") {
			t.Fatalf("Unexpected probe %q", msg)
		}
		if msg := cmd.Probe(ctx, []string{"nope"}); !strings.Contains(msg, "unknown exchange") {
			t.Fatalf("Expecting an error, got %q", msg)
		}
	})

	t.Run("Loading", func(t *testing.T) {
		cmd, _, _ := newCommands()
		if msg := cmd.Loading(); !strings.Contains(msg, "2 exchanges about 2 coins") {
			t.Fatalf("Unexpected loading message %q", msg)
		}
	})
}

func TestNewPoller(t *testing.T) {
	if _, ok := NewPoller(config.BotConfig{}).(*tele.LongPoller); !ok {
		t.Fatalf("Expecting long polling without a webhook url")
	}
	webhook, ok := NewPoller(config.BotConfig{WebhookURL: "https://example.com/hook", Listen: ":8443"}).(*tele.Webhook)
	if !ok {
		t.Fatalf("Expecting a webhook")
	}
	if webhook.Listen != ":8443" || webhook.Endpoint.PublicURL != "https://example.com/hook" {
		t.Fatalf("Unexpected webhook %+v", webhook)
	}
}

func TestNewBot(t *testing.T) {
	cmd, _, _ := newCommands()
	b, err := newBot(tele.Settings{Token: "test", Offline: true, Poller: &tele.LongPoller{}}, cmd)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rows := len(b.menu.InlineKeyboard); rows != 3 {
		t.Fatalf("Expecting 3 keyboard rows, got %d", rows)
	}
}
