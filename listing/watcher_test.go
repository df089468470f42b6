package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
)

type fakeLister struct {
	name exchange.Exchange

	mu      sync.Mutex
	symbols []string
	err     error
	calls   int
}

func (f *fakeLister) GetName() exchange.Exchange { return f.name }

func (f *fakeLister) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	set := make(map[string]struct{}, len(f.symbols))
	for _, s := range f.symbols {
		set[s] = struct{}{}
	}
	return set, nil
}

func (f *fakeLister) set(symbols []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols, f.err = symbols, err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestWatcher_CheckForNewListings(t *testing.T) {
	ctx := context.Background()

	t.Run("one new tracked symbol yields one event", func(t *testing.T) {
		binance := &fakeLister{name: exchange.Binance, symbols: []string{"BTCUSDT", "ETHUSDT"}}
		w := NewWatcher([]exchange.SymbolLister{binance}, WithClock(newClock().Now))
		if err := w.Initialize(ctx); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		binance.set([]string{"BTCUSDT", "ETHUSDT", "TONUSDT"}, nil)
		events := w.CheckForNewListings(ctx)
		if len(events) != 1 {
			t.Fatalf("Expecting 1 event, got %v", events)
		}
		if events[0].Symbol != "TONUSDT" || events[0].Exchange != exchange.Binance || events[0].ID == "" {
			t.Fatalf("Unexpected event %+v", events[0])
		}

		// the same snapshot again adds nothing
		if events := w.CheckForNewListings(ctx); len(events) != 0 {
			t.Fatalf("Expecting no events on an unchanged snapshot, got %v", events)
		}
	})

	t.Run("untracked symbols are ignored", func(t *testing.T) {
		okx := &fakeLister{name: exchange.OKX, symbols: []string{"BTC-USDT"}}
		w := NewWatcher([]exchange.SymbolLister{okx}, WithTrackedAssets([]exchange.Asset{exchange.BTC}))
		w.Initialize(ctx)

		okx.set([]string{"BTC-USDT", "PEPE-USDT", "ETH-USDC", "BTC-EUR"}, nil)
		events := w.CheckForNewListings(ctx)
		if len(events) != 1 || events[0].Symbol != "BTC-EUR" {
			t.Fatalf("Expecting only BTC-EUR, got %v", events)
		}
	})

	t.Run("aliases match tracked assets", func(t *testing.T) {
		kraken := &fakeLister{name: exchange.Kraken, symbols: []string{"XXBTZUSD"}}
		w := NewWatcher([]exchange.SymbolLister{kraken})
		w.Initialize(ctx)

		kraken.set([]string{"XXBTZUSD", "XBTUSDC", "XXRPZEUR"}, nil)
		events := w.CheckForNewListings(ctx)
		if len(events) != 2 || events[0].Symbol != "XBTUSDC" || events[1].Symbol != "XXRPZEUR" {
			t.Fatalf("Unexpected events %v", events)
		}
	})

	t.Run("a failing exchange does not block others", func(t *testing.T) {
		bybit := &fakeLister{name: exchange.Bybit, symbols: []string{"BTCUSDT"}}
		htx := &fakeLister{name: exchange.HTX, err: errors.New("boom")}
		w := NewWatcher([]exchange.SymbolLister{bybit, htx})
		w.Initialize(ctx)

		bybit.set([]string{"BTCUSDT", "SOLUSDT"}, nil)
		htx.set([]string{"btcusdt", "pepeusdt", "tonusdt"}, nil)
		events := w.CheckForNewListings(ctx)
		if len(events) != 3 {
			t.Fatalf("Expecting 3 events, got %v", events)
		}
		if events[0].Exchange != exchange.Bybit || events[0].Symbol != "SOLUSDT" {
			t.Fatalf("Unexpected bybit event %+v", events[0])
		}
		// htx failed to initialize, so everything tracked it lists now is new
		if events[1].Symbol != "btcusdt" || events[2].Symbol != "tonusdt" || events[2].Exchange != exchange.HTX {
			t.Fatalf("Unexpected htx events %v", events[1:])
		}

		htx.set([]string{"btcusdt", "pepeusdt", "tonusdt", "adausdt"}, nil)
		events = w.CheckForNewListings(ctx)
		if len(events) != 1 || events[0].Symbol != "adausdt" {
			t.Fatalf("Expecting adausdt, got %v", events)
		}
	})

	t.Run("a failed cycle diffs against the empty set", func(t *testing.T) {
		mexc := &fakeLister{name: exchange.MEXC, symbols: []string{"BTCUSDT"}}
		w := NewWatcher([]exchange.SymbolLister{mexc})
		w.Initialize(ctx)

		mexc.set(nil, errors.New("timeout"))
		if events := w.CheckForNewListings(ctx); len(events) != 0 {
			t.Fatalf("A failed fetch adds nothing, got %v", events)
		}
		mexc.set([]string{"BTCUSDT", "ETHUSDT", "PEPEUSDT"}, nil)
		events := w.CheckForNewListings(ctx)
		if len(events) != 2 || events[0].Symbol != "BTCUSDT" || events[1].Symbol != "ETHUSDT" {
			t.Fatalf("Expecting BTCUSDT and ETHUSDT, got %v", events)
		}
	})

	t.Run("WithRecoveryBaseline skips the recovery cycle", func(t *testing.T) {
		mexc := &fakeLister{name: exchange.MEXC, symbols: []string{"BTCUSDT"}}
		w := NewWatcher([]exchange.SymbolLister{mexc}, WithRecoveryBaseline())
		w.Initialize(ctx)

		mexc.set(nil, errors.New("timeout"))
		w.CheckForNewListings(ctx)
		mexc.set([]string{"BTCUSDT", "ETHUSDT", "TRXUSDT"}, nil)
		if events := w.CheckForNewListings(ctx); len(events) != 0 {
			t.Fatalf("Recovery cycle should only set a baseline, got %v", events)
		}
		mexc.set([]string{"BTCUSDT", "ETHUSDT", "TRXUSDT", "TONUSDT"}, nil)
		if events := w.CheckForNewListings(ctx); len(events) != 1 || events[0].Symbol != "TONUSDT" {
			t.Fatalf("Expecting TONUSDT after the baseline, got %v", events)
		}
	})
}

func TestWatcher_RecentListings(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	poloniex := &fakeLister{name: exchange.Poloniex, symbols: []string{"BTC_USDT"}}
	w := NewWatcher([]exchange.SymbolLister{poloniex}, WithClock(clk.Now))
	w.Initialize(ctx)

	poloniex.set([]string{"BTC_USDT", "ETH_USDT"}, nil)
	w.CheckForNewListings(ctx)

	clk.Advance(20 * time.Hour)
	poloniex.set([]string{"BTC_USDT", "ETH_USDT", "SOL_USDT"}, nil)
	w.CheckForNewListings(ctx)

	t.Run("newest first", func(t *testing.T) {
		recent := w.RecentListings(24 * time.Hour)
		if len(recent) != 2 || recent[0].Symbol != "SOL_USDT" || recent[1].Symbol != "ETH_USDT" {
			t.Fatalf("Unexpected order %v", recent)
		}
	})

	t.Run("older than the window are excluded", func(t *testing.T) {
		clk.Advance(5 * time.Hour)
		recent := w.RecentListings(24 * time.Hour)
		if len(recent) != 1 || recent[0].Symbol != "SOL_USDT" {
			t.Fatalf("Expecting only SOL_USDT, got %v", recent)
		}
	})

	t.Run("CleanupOldListings", func(t *testing.T) {
		w.CleanupOldListings(24 * time.Hour)
		if n := len(w.RecentListings(1000 * time.Hour)); n != 1 {
			t.Fatalf("Expecting 1 event left in the log, got %d", n)
		}
	})
}

func TestWatcher_lifecycle(t *testing.T) {
	ctx := context.Background()
	binance := &fakeLister{name: exchange.Binance, symbols: []string{"BTCUSDT"}}
	w := NewWatcher([]exchange.SymbolLister{binance}, WithInterval(10*time.Millisecond))

	if w.State() != Uninitialized {
		t.Fatalf("Expecting uninitialized, got %s", w.State())
	}
	if err := w.StartWatching(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w.State() != Watching {
		t.Fatalf("Expecting watching, got %s", w.State())
	}
	if err := w.StartWatching(ctx); err != nil {
		t.Fatalf("Second start should be a no-op, got %v", err)
	}

	binance.set([]string{"BTCUSDT", "BNBUSDT"}, nil)
	deadline := time.Now().Add(2 * time.Second)
	for len(w.RecentListings(time.Hour)) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Watcher never picked up the new listing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.StopWatching()
	w.StopWatching()
	if w.State() != Stopped {
		t.Fatalf("Expecting stopped, got %s", w.State())
	}
	calls := binance.callCount()
	time.Sleep(50 * time.Millisecond)
	if binance.callCount() != calls {
		t.Fatalf("Stopped watcher kept polling")
	}
	if err := w.StartWatching(ctx); err != ErrStopped {
		t.Fatalf("Expecting ErrStopped, got %v", err)
	}
}

func TestFormatListingsMessage(t *testing.T) {
	ctx := context.Background()
	clk := newClock()

	t.Run("no listings", func(t *testing.T) {
		w := NewWatcher(nil, WithClock(clk.Now))
		msg := w.FormatListingsMessage()
		if !strings.Contains(msg, "No new listings") || !strings.Contains(msg, "24h") {
			t.Fatalf("Unexpected message %q", msg)
		}
	})

	t.Run("top ten and the rest", func(t *testing.T) {
		symbols := []string{"BTCUSDT"}
		binance := &fakeLister{name: exchange.Binance, symbols: symbols}
		w := NewWatcher([]exchange.SymbolLister{binance}, WithClock(clk.Now))
		w.Initialize(ctx)
		for _, base := range []string{"BTC", "ETH", "TRX", "TON", "USDC", "BNB", "SOL", "XRP", "ADA", "BTCDOM", "ETHFI", "SOLV"} {
			symbols = append(symbols, base+"EUR")
		}
		binance.set(symbols, nil)
		w.CheckForNewListings(ctx)
		clk.Advance(90 * time.Minute)

		msg := w.FormatListingsMessage()
		if !strings.Contains(msg, "Found 12 new listings") {
			t.Fatalf("Missing count in %q", msg)
		}
		if !strings.Contains(msg, "10. ⚫") || strings.Contains(msg, "11. ⚫") {
			t.Fatalf("Expecting exactly ten entries in %q", msg)
		}
		if !strings.Contains(msg, "And 2 more listings") {
			t.Fatalf("Missing remainder in %q", msg)
		}
		if !strings.Contains(msg, "Exchange: BINANCE") || !strings.Contains(msg, "1h ago") {
			t.Fatalf("Missing details in %q", msg)
		}
	})
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		30 * time.Second: "just now",
		5 * time.Minute:  "5 min ago",
		3 * time.Hour:    "3h ago",
		50 * time.Hour:   "2d ago",
	}
	for age, want := range cases {
		if got := TimeAgo(now, now.Add(-age)); got != want {
			t.Fatalf("TimeAgo(%s) = %q, want %q", age, got, want)
		}
	}
}
