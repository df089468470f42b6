package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
)

const (
	DefaultNewCoinsTTL = 5 * time.Minute
	newCoinsPerVenue   = 20
	newCoinsKey        = "new_coins"

	minSmallCapPrice  = 0.000001
	maxSmallCapPrice  = 100
	minSmallCapVolume = 1000
)

type smallCapRule struct {
	maxVolume float64
	// only pairs of tracked assets qualify
	trackedOnly bool
}

var smallCapRules = map[exchange.Exchange]smallCapRule{
	exchange.Binance: {maxVolume: 500000, trackedOnly: true},
	exchange.Bybit:   {maxVolume: 300000, trackedOnly: true},
	exchange.OKX:     {maxVolume: 200000},
}

// NewCoinsService finds thinly traded USDT pairs, which is where fresh listings show up first.
type NewCoinsService struct {
	service
	tracked []exchange.Asset
}

func NewNewCoinsService(scanners []exchange.MarketScanner, tracked []exchange.Asset, options ...Option) *NewCoinsService {
	if len(tracked) == 0 {
		tracked = exchange.DefaultAssets
	}
	return &NewCoinsService{
		service: newService("new_coins", scanners, DefaultNewCoinsTTL, options),
		tracked: tracked,
	}
}

// GetNewCoins returns at most 20 thinly traded small caps, biggest gainers first.
// It fails only when every venue fails, and such a failure is not cached.
func (s *NewCoinsService) GetNewCoins(ctx context.Context) ([]CoinSummary, error) {
	return s.cached(ctx, newCoinsKey, func(ctx context.Context) ([]CoinSummary, error) {
		coins, err := s.collect(ctx, s.pick)
		if err != nil {
			return nil, err
		}
		return rank(coins, topN), nil
	})
}

func (s *NewCoinsService) pick(name exchange.Exchange, tickers []exchange.MarketTicker) []CoinSummary {
	rule, ok := smallCapRules[name]
	if !ok {
		return nil
	}
	suffix := quoteSuffix(name)
	var coins []CoinSummary
	for _, t := range tickers {
		if !strings.HasSuffix(t.Pair, suffix) {
			continue
		}
		if rule.trackedOnly && !exchange.IsTrackedSymbol(t.Pair, s.tracked) {
			continue
		}
		if t.Volume24h <= minSmallCapVolume || t.Volume24h >= rule.maxVolume {
			continue
		}
		if t.Price <= minSmallCapPrice || t.Price >= maxSmallCapPrice {
			continue
		}
		coins = append(coins, toSummary(name, t))
	}
	return capped(coins, newCoinsPerVenue)
}
