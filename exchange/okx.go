package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://www.okx.com/docs-v5/en/#public-data-rest-api
const (
	okxBaseApi   = "https://www.okx.com"
	okxPublicApi = "https://okx.com"
)

type okxClient struct {
	exchangeBaseClient
	// instruments and full-market tickers are served from the bare domain
	public exchangeBaseClient
}

func NewOKXClient(httpClient *http.Client) Adapter {
	return newOKXClient(okxBaseApi, okxPublicApi, httpClient)
}

func newOKXClient(baseURL, publicURL string, httpClient *http.Client) *okxClient {
	return &okxClient{
		exchangeBaseClient: newExchangeBase(OKX, baseURL, httpClient),
		public:             newExchangeBase(OKX, publicURL, httpClient),
	}
}

func (client *okxClient) extractError(respBytes []byte) error {
	code := gjson.GetBytes(respBytes, "code")
	if code.Exists() && code.String() != "0" {
		return errors.Errorf("okx code %s: %s", code.String(), gjson.GetBytes(respBytes, "msg").String())
	}
	return nil
}

func (client *okxClient) GetTicker(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/api/v5/market/ticker", map[string]string{"instId": symbol})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}
	ticker := gjson.GetBytes(respBytes, "data.0")
	if !ticker.Exists() {
		return nil, errNoData
	}
	return decodeOKXTicker(ticker), nil
}

// OKX has no change field, it is derived from last against open24h.
func decodeOKXTicker(ticker gjson.Result) *Quote {
	last := number(ticker.Get("last"))
	return &Quote{
		Price:        last,
		ChangePct24h: percentChange(last, number(ticker.Get("open24h"))),
		High24h:      number(ticker.Get("high24h")),
		Low24h:       number(ticker.Get("low24h")),
		Volume24h:    number(ticker.Get("vol24h")),
	}
}

func (client *okxClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.GetTicker)
}

func (client *okxClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.public.get(ctx, "/api/v5/public/instruments", map[string]string{"instType": "SPOT"})
	if err != nil {
		return nil, err
	}
	symbols := make(map[string]struct{})
	_, err = jsonparser.ArrayEach(respBytes, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		if instID, _ := jsonparser.GetString(value, "instId"); instID != "" {
			symbols[instID] = struct{}{}
		}
	}, "data")
	if err != nil {
		return nil, errors.Wrap(err, "decode instruments")
	}
	return symbols, nil
}

func (client *okxClient) GetMarketTickers(ctx context.Context) ([]MarketTicker, error) {
	respBytes, err := client.public.get(ctx, "/api/v5/market/tickers", map[string]string{"instType": "SPOT"})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}
	var tickers []MarketTicker
	gjson.GetBytes(respBytes, "data").ForEach(func(_, t gjson.Result) bool {
		quote := decodeOKXTicker(t)
		tickers = append(tickers, MarketTicker{
			Exchange:     client.name,
			Pair:         t.Get("instId").String(),
			Price:        orZero(quote.Price),
			ChangePct24h: orZero(quote.ChangePct24h),
			Volume24h:    orZero(quote.Volume24h),
			High24h:      orZero(quote.High24h),
			Low24h:       orZero(quote.Low24h),
		})
		return true
	})
	return tickers, nil
}

func init() {
	Register(NewOKXClient)
}
