package scanner

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
)

const (
	DefaultMoonersTTL = 3 * time.Minute
	DefaultMinGrowth  = 10.0
	moonersPerVenue   = 15
)

// Mooners need real trading behind the move; thinner books are ignored.
var moonerMinVolume = map[exchange.Exchange]float64{
	exchange.Binance: 100000,
	exchange.Bybit:   50000,
	exchange.OKX:     10000,
}

// MoonersService finds USDT pairs that grew by at least a threshold over the last 24h.
type MoonersService struct {
	service
}

func NewMoonersService(scanners []exchange.MarketScanner, options ...Option) *MoonersService {
	return &MoonersService{service: newService("mooners", scanners, DefaultMoonersTTL, options)}
}

// GetMooners returns at most 20 coins whose 24h change is at least minGrowth percent, biggest gainers first.
// It fails only when every venue fails, and such a failure is not cached.
func (s *MoonersService) GetMooners(ctx context.Context, minGrowth float64) ([]CoinSummary, error) {
	key := "mooners_" + strconv.FormatFloat(minGrowth, 'f', -1, 64)
	return s.cached(ctx, key, func(ctx context.Context) ([]CoinSummary, error) {
		coins, err := s.collect(ctx, func(name exchange.Exchange, tickers []exchange.MarketTicker) []CoinSummary {
			return pickMooners(name, tickers, minGrowth)
		})
		if err != nil {
			return nil, err
		}
		return rank(coins, topN), nil
	})
}

func pickMooners(name exchange.Exchange, tickers []exchange.MarketTicker, minGrowth float64) []CoinSummary {
	suffix := quoteSuffix(name)
	minVolume := moonerMinVolume[name]
	var coins []CoinSummary
	for _, t := range tickers {
		if !strings.HasSuffix(t.Pair, suffix) {
			continue
		}
		if t.ChangePct24h >= minGrowth && t.Volume24h > minVolume {
			coins = append(coins, toSummary(name, t))
		}
	}
	return capped(coins, moonersPerVenue)
}
