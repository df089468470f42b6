package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://bybit-exchange.github.io/docs/v5/market/tickers
const bybitBaseApi = "https://api.bybit.com"

type bybitClient struct {
	exchangeBaseClient
}

func NewBybitClient(httpClient *http.Client) Adapter {
	return newBybitClient(bybitBaseApi, httpClient)
}

func newBybitClient(baseURL string, httpClient *http.Client) *bybitClient {
	return &bybitClient{exchangeBaseClient: newExchangeBase(Bybit, baseURL, httpClient)}
}

// Check to see if we have error in the response
func (client *bybitClient) extractError(respBytes []byte) error {
	retCode := gjson.GetBytes(respBytes, "retCode")
	if retCode.Exists() && retCode.Int() != 0 {
		return errors.Errorf("bybit retCode %d: %s", retCode.Int(), gjson.GetBytes(respBytes, "retMsg").String())
	}
	return nil
}

func (client *bybitClient) GetTicker(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/v5/market/tickers", map[string]string{
		"category": "spot",
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}

	ticker := gjson.GetBytes(respBytes, "result.list.0")
	if !ticker.Exists() {
		return nil, errNoData
	}
	return &Quote{
		Price: number(ticker.Get("lastPrice")),
		// Bybit reports a fraction, 0.0123 means 1.23%
		ChangePct24h: scaled(number(ticker.Get("price24hPcnt")), 100),
		High24h:      number(ticker.Get("highPrice24h")),
		Low24h:       number(ticker.Get("lowPrice24h")),
		Volume24h:    number(ticker.Get("volume24h")),
	}, nil
}

func (client *bybitClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.GetTicker)
}

func (client *bybitClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/v5/market/instruments-info", map[string]string{"category": "spot"})
	if err != nil {
		return nil, err
	}
	symbols := make(map[string]struct{})
	_, err = jsonparser.ArrayEach(respBytes, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		status, _ := jsonparser.GetString(value, "status")
		symbol, _ := jsonparser.GetString(value, "symbol")
		if status == "Trading" && symbol != "" {
			symbols[symbol] = struct{}{}
		}
	}, "result", "list")
	if err != nil {
		return nil, errors.Wrap(err, "decode instruments-info")
	}
	return symbols, nil
}

func (client *bybitClient) GetMarketTickers(ctx context.Context) ([]MarketTicker, error) {
	respBytes, err := client.get(ctx, "/v5/market/tickers", map[string]string{"category": "spot"})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}
	var tickers []MarketTicker
	gjson.GetBytes(respBytes, "result.list").ForEach(func(_, t gjson.Result) bool {
		tickers = append(tickers, MarketTicker{
			Exchange:     client.name,
			Pair:         t.Get("symbol").String(),
			Price:        orZero(number(t.Get("lastPrice"))),
			ChangePct24h: orZero(number(t.Get("price24hPcnt"))) * 100,
			Volume24h:    orZero(number(t.Get("volume24h"))),
			High24h:      orZero(number(t.Get("highPrice24h"))),
			Low24h:       orZero(number(t.Get("lowPrice24h"))),
		})
		return true
	})
	return tickers, nil
}

func init() {
	Register(NewBybitClient)
}
