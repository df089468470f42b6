package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/hovsthvost89-eng/crypto-bot/metrics"
	"github.com/sirupsen/logrus"
)

type ExchangeClientProvider func(httpClient *http.Client) Adapter

var providers []ExchangeClientProvider

// Register is called from each venue's init; the registry builds one adapter per provider.
func Register(p ExchangeClientProvider) {
	providers = append(providers, p)
}

// Registry is the aggregator: it owns one adapter per venue and fans requests out to them.
type Registry struct {
	clients map[Exchange]Adapter
	names   []Exchange
	metrics *metrics.Metrics
}

func NewRegistry(httpClient *http.Client, m *metrics.Metrics) *Registry {
	adapters := make([]Adapter, 0, len(providers))
	for _, p := range providers {
		adapters = append(adapters, p(httpClient))
	}
	return NewRegistryWith(m, adapters...)
}

// NewRegistryWith builds a registry over explicit adapters.
func NewRegistryWith(m *metrics.Metrics, adapters ...Adapter) *Registry {
	r := &Registry{clients: make(map[Exchange]Adapter, len(adapters)), metrics: m}
	for _, adapter := range adapters {
		name := adapter.GetName()
		if _, exist := r.clients[name]; exist {
			panic(fmt.Errorf("%q already exists in exchange registry", name))
		}
		r.clients[name] = adapter
		r.names = append(r.names, name)
	}
	sort.Slice(r.names, func(i, j int) bool { return r.names[i] < r.names[j] })
	return r
}

func (r *Registry) GetAllNames() []Exchange {
	return append([]Exchange(nil), r.names...)
}

func (r *Registry) getClient(exchangeName string) Adapter {
	if client, ok := r.clients[Exchange(strings.ToLower(exchangeName))]; ok {
		return client
	}
	return nil
}

// Listers returns the venues able to enumerate their tradable symbols, in name order.
func (r *Registry) Listers() []SymbolLister {
	var listers []SymbolLister
	for _, name := range r.names {
		if lister, ok := r.clients[name].(SymbolLister); ok {
			listers = append(listers, lister)
		}
	}
	return listers
}

// Scanners returns the requested venues that serve full-market tickers, in the order asked.
func (r *Registry) Scanners(names ...Exchange) []MarketScanner {
	var scanners []MarketScanner
	for _, name := range names {
		if scanner, ok := r.clients[name].(MarketScanner); ok {
			scanners = append(scanners, scanner)
		}
	}
	return scanners
}

type pendingCell struct {
	exchange Exchange
	asset    Asset
	doneCh   chan *TickerSnapshot
}

// GetAllStats queries every (exchange, asset) cell concurrently and returns exactly one row per cell,
// sorted by exchange then asset. Failures never escape: they become rows with a note.
func (r *Registry) GetAllStats(ctx context.Context, assets []Asset) []*TickerSnapshot {
	assets = uniqueAssets(assets)

	// Each pending cell carries its own key, so a lost job is still attributed correctly
	pendings := make([]pendingCell, 0, len(r.names)*len(assets))
	for _, name := range r.names {
		client := r.clients[name]
		for _, asset := range assets {
			cell := pendingCell{exchange: name, asset: asset, doneCh: make(chan *TickerSnapshot, 1)}
			pendings = append(pendings, cell)
			go r.runCell(ctx, client, cell)
		}
	}

	rows := make([]*TickerSnapshot, 0, len(pendings))
	for _, cell := range pendings {
		rows = append(rows, <-cell.doneCh)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Exchange != rows[j].Exchange {
			return rows[i].Exchange < rows[j].Exchange
		}
		return rows[i].Asset < rows[j].Asset
	})
	return rows
}

func (r *Registry) runCell(ctx context.Context, client Adapter, cell pendingCell) {
	cell.doneCh <- r.fetchCell(ctx, client, cell.exchange, cell.asset)
}

// fetchCell runs one adapter fetch. A crashed job or a nil snapshot becomes a load error row.
func (r *Registry) fetchCell(ctx context.Context, client Adapter, name Exchange, asset Asset) (sp *TickerSnapshot) {
	start := time.Now()
	defer func() {
		if reason := recover(); reason != nil {
			logrus.WithFields(logrus.Fields{
				"exchange": name,
				"asset":    asset,
			}).Errorf("Ticker job crashed: %v", reason)
			r.metrics.RecordCell(string(name), "crashed", time.Since(start))
			sp = &TickerSnapshot{Exchange: name, Asset: asset, Note: NoteLoadError}
		}
	}()

	sp = client.FetchAsset(ctx, asset)
	if sp == nil {
		sp = &TickerSnapshot{Exchange: name, Asset: asset, Note: NoteLoadError}
	}
	outcome := "ok"
	if !sp.OK() {
		outcome = "failed"
	}
	r.metrics.RecordCell(string(name), outcome, time.Since(start))
	return sp
}

func uniqueAssets(assets []Asset) []Asset {
	seen := make(map[Asset]struct{}, len(assets))
	unique := make([]Asset, 0, len(assets))
	for _, asset := range assets {
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		unique = append(unique, asset)
	}
	return unique
}

type ProbeResult struct {
	Exchange Exchange
	Asset    Asset
	Success  bool
	Duration time.Duration
	Snapshot *TickerSnapshot
}

// TestExchange fetches a single cell from one venue and times it.
func (r *Registry) TestExchange(ctx context.Context, exchangeName string, asset Asset) (*ProbeResult, error) {
	client := r.getClient(exchangeName)
	if client == nil {
		return nil, fmt.Errorf("unknown exchange %s", exchangeName)
	}
	start := time.Now()
	sp := r.fetchCell(ctx, client, client.GetName(), asset)
	return &ProbeResult{
		Exchange: client.GetName(),
		Asset:    asset,
		Success:  sp.OK(),
		Duration: time.Since(start),
		Snapshot: sp,
	}, nil
}
