// Package listing detects newly listed pairs by diffing successive tradable-symbol snapshots per exchange.
package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultRetention = 24 * time.Hour
)

type State int

const (
	Uninitialized State = iota
	Initializing
	Watching
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Watching:
		return "watching"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

var ErrStopped = errors.New("listings watcher is stopped")

// Event is one detected listing.
type Event struct {
	ID        string            `json:"id"`
	Exchange  exchange.Exchange `json:"exchange"`
	Symbol    string            `json:"symbol"`
	Timestamp time.Time         `json:"timestamp"`
}

type symbolSet = map[string]struct{}

type Watcher struct {
	listers   []exchange.SymbolLister
	tracked   []exchange.Asset
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	baseline  bool

	mu       sync.Mutex
	state    State
	previous map[exchange.Exchange]symbolSet
	events   []Event
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*Watcher)

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.retention = d
		}
	}
}

func WithTrackedAssets(assets []exchange.Asset) Option {
	return func(w *Watcher) {
		if len(assets) > 0 {
			w.tracked = assets
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithRecoveryBaseline makes an exchange whose previous snapshot is empty only record a baseline,
// so a venue coming back from a failed fetch does not report its whole market as new.
func WithRecoveryBaseline() Option {
	return func(w *Watcher) { w.baseline = true }
}

func NewWatcher(listers []exchange.SymbolLister, options ...Option) *Watcher {
	w := &Watcher{
		listers:   listers,
		tracked:   exchange.DefaultAssets,
		interval:  DefaultInterval,
		retention: DefaultRetention,
		now:       time.Now,
		previous:  make(map[exchange.Exchange]symbolSet, len(listers)),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Initialize loads the first snapshot of every exchange. An exchange that fails to answer starts from an empty set.
func (w *Watcher) Initialize(ctx context.Context) error {
	w.mu.Lock()
	if w.state == Stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.state = Initializing
	w.mu.Unlock()

	current := w.snapshotAll(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	for name, symbols := range current {
		w.previous[name] = symbols
		logrus.Infof("Loaded %d tradable symbols from %s", len(symbols), name)
	}
	return nil
}

// StartWatching initializes when needed, then checks for new listings every interval until stopped.
// Calling it while already watching does nothing.
func (w *Watcher) StartWatching(ctx context.Context) error {
	switch w.State() {
	case Stopped:
		return ErrStopped
	case Watching:
		return nil
	case Uninitialized:
		if err := w.Initialize(ctx); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Initializing {
		// stopped or started concurrently while the first snapshot was loading
		if w.state == Stopped {
			return ErrStopped
		}
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.state = Watching
	go w.loop(loopCtx, w.done)

	logrus.Infof("Watching %d exchanges for new listings every %s", len(w.listers), w.interval)
	return nil
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.CheckForNewListings(ctx)
			w.CleanupOldListings(w.retention)
		}
	}
}

// StopWatching cancels the interval and waits for an in-flight check. Safe to call more than once.
func (w *Watcher) StopWatching() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.state = Stopped
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		logrus.Info("Listings watcher stopped")
	}
}

// CheckForNewListings snapshots every exchange, records tracked symbols absent from the previous snapshot
// and returns the events it appended. The previous snapshot is always replaced by the current one,
// and an empty previous snapshot is diffed like any other unless WithRecoveryBaseline is set.
func (w *Watcher) CheckForNewListings(ctx context.Context) []Event {
	current := w.snapshotAll(ctx)
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	var added []Event
	for _, lister := range w.listers {
		name := lister.GetName()
		symbols := current[name]
		previous := w.previous[name]
		w.previous[name] = symbols

		if w.baseline && len(previous) == 0 {
			continue
		}
		var hits []string
		for symbol := range symbols {
			if _, seen := previous[symbol]; seen {
				continue
			}
			if exchange.IsTrackedSymbol(symbol, w.tracked) {
				hits = append(hits, symbol)
			}
		}
		sort.Strings(hits)
		for _, symbol := range hits {
			event := Event{ID: uuid.NewString(), Exchange: name, Symbol: symbol, Timestamp: now}
			added = append(added, event)
			w.metrics.RecordListing(string(name))
		}
		if len(hits) > 0 {
			logrus.WithField("exchange", name).Infof("New listings: %v", hits)
		}
	}
	w.events = append(w.events, added...)
	return added
}

// snapshotAll fetches every exchange concurrently; a failed exchange yields an empty set.
func (w *Watcher) snapshotAll(ctx context.Context) map[exchange.Exchange]symbolSet {
	type result struct {
		name    exchange.Exchange
		symbols symbolSet
	}
	doneChs := make([]chan result, len(w.listers))
	for i, lister := range w.listers {
		doneChs[i] = make(chan result, 1)
		go func(lister exchange.SymbolLister, doneCh chan result) {
			symbols, err := lister.ListSymbols(ctx)
			if err != nil {
				logrus.WithError(err).WithField("exchange", lister.GetName()).Warn("Failed to load tradable symbols")
				symbols = symbolSet{}
			}
			doneCh <- result{name: lister.GetName(), symbols: symbols}
		}(lister, doneChs[i])
	}

	snapshots := make(map[exchange.Exchange]symbolSet, len(w.listers))
	for _, doneCh := range doneChs {
		r := <-doneCh
		snapshots[r.name] = r.symbols
		w.metrics.RecordSnapshotSize(string(r.name), len(r.symbols))
	}
	return snapshots
}

// RecentListings returns events newer than maxAge, newest first.
func (w *Watcher) RecentListings(maxAge time.Duration) []Event {
	cutoff := w.now().Add(-maxAge)

	w.mu.Lock()
	defer w.mu.Unlock()
	var recent []Event
	for _, event := range w.events {
		if event.Timestamp.After(cutoff) {
			recent = append(recent, event)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	return recent
}

// CleanupOldListings drops events older than maxAge from the log.
func (w *Watcher) CleanupOldListings(maxAge time.Duration) {
	cutoff := w.now().Add(-maxAge)

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.events[:0]
	for _, event := range w.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	w.events = kept
}
