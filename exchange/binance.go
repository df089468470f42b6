package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://developers.binance.com/docs/binance-spot-api-docs/rest-api
const binanceBaseApi = "https://api.binance.com"

type binanceClient struct {
	exchangeBaseClient
}

func NewBinanceClient(httpClient *http.Client) Adapter {
	return newBinanceClient(binanceBaseApi, httpClient)
}

func newBinanceClient(baseURL string, httpClient *http.Client) *binanceClient {
	return &binanceClient{exchangeBaseClient: newExchangeBase(Binance, baseURL, httpClient)}
}

func (client *binanceClient) Get24hStatistics(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/api/v3/ticker/24hr", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	return decodeBinanceTicker(respBytes)
}

func (client *binanceClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.Get24hStatistics)
}

func (client *binanceClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}
	return listBinanceSymbols(respBytes, func(value []byte) bool {
		status, _ := jsonparser.GetString(value, "status")
		return status == "TRADING"
	})
}

func (client *binanceClient) GetMarketTickers(ctx context.Context) ([]MarketTicker, error) {
	respBytes, err := client.get(ctx, "/api/v3/ticker/24hr", nil)
	if err != nil {
		return nil, err
	}
	var tickers []MarketTicker
	gjson.ParseBytes(respBytes).ForEach(func(_, t gjson.Result) bool {
		tickers = append(tickers, MarketTicker{
			Exchange:     client.name,
			Pair:         t.Get("symbol").String(),
			Price:        orZero(number(t.Get("lastPrice"))),
			ChangePct24h: orZero(number(t.Get("priceChangePercent"))),
			Volume24h:    orZero(number(t.Get("volume"))),
			High24h:      orZero(number(t.Get("highPrice"))),
			Low24h:       orZero(number(t.Get("lowPrice"))),
		})
		return true
	})
	return tickers, nil
}

// Binance and MEXC share the 24hr ticker schema; the change is already a percent.
func decodeBinanceTicker(respBytes []byte) (*Quote, error) {
	if msg := gjson.GetBytes(respBytes, "msg"); msg.Exists() {
		return nil, errors.New(msg.String())
	}
	price := number(gjson.GetBytes(respBytes, "lastPrice"))
	if price == nil {
		return nil, errNoData
	}
	return &Quote{
		Price:        price,
		ChangePct24h: number(gjson.GetBytes(respBytes, "priceChangePercent")),
		High24h:      number(gjson.GetBytes(respBytes, "highPrice")),
		Low24h:       number(gjson.GetBytes(respBytes, "lowPrice")),
		Volume24h:    number(gjson.GetBytes(respBytes, "volume")),
	}, nil
}

func listBinanceSymbols(respBytes []byte, tradable func(value []byte) bool) (map[string]struct{}, error) {
	symbols := make(map[string]struct{})
	var innerErr error
	_, err := jsonparser.ArrayEach(respBytes, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			innerErr = err
			return
		}
		if !tradable(value) {
			return
		}
		if symbol, err := jsonparser.GetString(value, "symbol"); err == nil && symbol != "" {
			symbols[symbol] = struct{}{}
		}
	}, "symbols")
	if err != nil {
		return nil, errors.Wrap(err, "decode exchangeInfo")
	}
	if innerErr != nil {
		return nil, errors.Wrap(innerErr, "decode exchangeInfo")
	}
	return symbols, nil
}

func init() {
	Register(NewBinanceClient)
}
