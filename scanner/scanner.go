// Package scanner looks for notable coins across the full spot markets of Binance, Bybit and OKX.
package scanner

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/cache"
	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Venues are scanned in this order; when two venues list the same coin the earlier one wins.
var Venues = []exchange.Exchange{exchange.Binance, exchange.Bybit, exchange.OKX}

const topN = 20

// CoinSummary is the normalized shape of one scanned coin.
type CoinSummary struct {
	Symbol    string            `json:"symbol"`
	Pair      string            `json:"pair"`
	Exchange  exchange.Exchange `json:"exchange"`
	Price     float64           `json:"price"`
	ChangePct float64           `json:"change_pct"`
	Volume    float64           `json:"volume"`
	High      float64           `json:"high"`
	Low       float64           `json:"low"`
}

type Cache = cache.Cache[[]CoinSummary]

type Option func(*service)

func WithCache(c Cache) Option {
	return func(s *service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *service) { s.metrics = m }
}

// service holds what both scanners share: the venues, the result cache and its ttl.
type service struct {
	name     string
	scanners []exchange.MarketScanner
	cache    Cache
	ttl      time.Duration
	metrics  *metrics.Metrics
}

func newService(name string, scanners []exchange.MarketScanner, ttl time.Duration, options []Option) service {
	s := service{name: name, scanners: scanners, ttl: ttl}
	for _, option := range options {
		option(&s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory[[]CoinSummary]()
	}
	return s
}

// cached returns the value under key while fresh, otherwise computes it with build and stores it.
func (s *service) cached(ctx context.Context, key string, build func(context.Context) ([]CoinSummary, error)) ([]CoinSummary, error) {
	if coins, ok := s.cache.Load(ctx, key); ok {
		s.metrics.RecordCacheLookup(s.name, true)
		logrus.WithField("key", key).Debug("Serving scan from cache")
		return coins, nil
	}
	s.metrics.RecordCacheLookup(s.name, false)

	coins, err := build(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Store(ctx, key, coins, s.ttl)
	return coins, nil
}

// ClearCache forgets every cached scan.
func (s *service) ClearCache(ctx context.Context) {
	s.cache.Clear(ctx)
	logrus.Infof("Cleared %s cache", s.name)
}

// collect fetches every venue concurrently and keeps whatever pick selects from each.
// A failing venue is logged and skipped; only when every venue fails is an error returned.
func (s *service) collect(ctx context.Context, pick func(exchange.Exchange, []exchange.MarketTicker) []CoinSummary) ([]CoinSummary, error) {
	if len(s.scanners) == 0 {
		return nil, nil
	}

	type result struct {
		coins []CoinSummary
		err   error
	}
	doneChs := make([]chan result, len(s.scanners))
	for i, scanner := range s.scanners {
		doneChs[i] = make(chan result, 1)
		go func(scanner exchange.MarketScanner, doneCh chan result) {
			defer func() {
				if reason := recover(); reason != nil {
					doneCh <- result{err: errors.Errorf("scan crashed: %v", reason)}
				}
			}()
			tickers, err := scanner.GetMarketTickers(ctx)
			if err != nil {
				doneCh <- result{err: err}
				return
			}
			doneCh <- result{coins: pick(scanner.GetName(), tickers)}
		}(scanner, doneChs[i])
	}

	var all []CoinSummary
	var failed int
	for i, doneCh := range doneChs {
		r := <-doneCh
		if r.err != nil {
			failed++
			logrus.WithError(r.err).WithField("exchange", s.scanners[i].GetName()).Warnf("Failed to scan market for %s", s.name)
			continue
		}
		all = append(all, r.coins...)
	}
	if failed == len(s.scanners) {
		return nil, errors.Errorf("%s: all %d venues failed", s.name, failed)
	}
	return all, nil
}

// quoteSuffix is how each venue spells a USDT-quoted pair.
func quoteSuffix(name exchange.Exchange) string {
	if name == exchange.OKX {
		return "-USDT"
	}
	return "USDT"
}

func toSummary(name exchange.Exchange, t exchange.MarketTicker) CoinSummary {
	return CoinSummary{
		Symbol:    strings.TrimSuffix(t.Pair, quoteSuffix(name)),
		Pair:      t.Pair,
		Exchange:  name,
		Price:     t.Price,
		ChangePct: t.ChangePct24h,
		Volume:    t.Volume24h,
		High:      t.High24h,
		Low:       t.Low24h,
	}
}

func sortByChange(coins []CoinSummary) {
	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].ChangePct > coins[j].ChangePct
	})
}

// rank deduplicates by symbol keeping the first occurrence, sorts by change descending and keeps the top n.
func rank(coins []CoinSummary, n int) []CoinSummary {
	seen := make(map[string]struct{}, len(coins))
	unique := make([]CoinSummary, 0, len(coins))
	for _, coin := range coins {
		if _, ok := seen[coin.Symbol]; ok {
			continue
		}
		seen[coin.Symbol] = struct{}{}
		unique = append(unique, coin)
	}
	sortByChange(unique)
	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}

// capped keeps the best max coins of one venue.
func capped(coins []CoinSummary, max int) []CoinSummary {
	sortByChange(coins)
	if len(coins) > max {
		return coins[:max]
	}
	return coins
}
