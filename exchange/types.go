package exchange

import (
	"context"
	"strings"
)

// Exchange is a trading venue. Its string value is what the result table sorts on.
type Exchange string

const (
	Binance  Exchange = "binance"
	Bybit    Exchange = "bybit"
	OKX      Exchange = "okx"
	Kraken   Exchange = "kraken"
	MEXC     Exchange = "mexc"
	HTX      Exchange = "htx"
	Poloniex Exchange = "poloniex"
)

// Asset is a tracked currency ticker such as BTC.
type Asset string

const (
	BTC  Asset = "BTC"
	ETH  Asset = "ETH"
	TRX  Asset = "TRX"
	TON  Asset = "TON"
	USDC Asset = "USDC"
	BNB  Asset = "BNB"
	SOL  Asset = "SOL"
	XRP  Asset = "XRP"
	ADA  Asset = "ADA"
)

// DefaultAssets is the order assets are requested in when none are configured.
var DefaultAssets = []Asset{BTC, ETH, TRX, TON, USDC, BNB, SOL, XRP, ADA}

func ParseAssets(names []string) []Asset {
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name != "" {
			assets = append(assets, Asset(name))
		}
	}
	return assets
}

// Quote holds the venue figures extracted from one ticker response; nil means the venue did not report it.
type Quote struct {
	Price        *float64
	ChangePct24h *float64
	High24h      *float64
	Low24h       *float64
	Volume24h    *float64
}

// TickerSnapshot is one cell of the result table. A failed cell keeps every number nil and explains itself in Note.
type TickerSnapshot struct {
	Exchange     Exchange
	Asset        Asset
	Price        *float64
	ChangePct24h *float64
	High24h      *float64
	Low24h       *float64
	Volume24h    *float64
	SymbolUsed   string
	Note         string
}

func (s *TickerSnapshot) OK() bool {
	return s.Price != nil
}

// Adapter knows one venue's symbols, endpoint and response schema.
type Adapter interface {
	GetName() Exchange
	GetSymbols(asset Asset) []string
	// FetchAsset never fails: errors are folded into the snapshot note.
	FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot
}

// SymbolLister returns every symbol currently tradable on a venue.
type SymbolLister interface {
	GetName() Exchange
	ListSymbols(ctx context.Context) (map[string]struct{}, error)
}

// MarketTicker is one entry of a full-market 24h snapshot. Missing numbers are zero.
type MarketTicker struct {
	Exchange     Exchange
	Pair         string
	Price        float64
	ChangePct24h float64
	Volume24h    float64
	High24h      float64
	Low24h       float64
}

// MarketScanner returns the whole spot market of a venue in one request.
type MarketScanner interface {
	GetName() Exchange
	GetMarketTickers(ctx context.Context) ([]MarketTicker, error)
}
