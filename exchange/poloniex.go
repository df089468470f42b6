package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://api-docs.poloniex.com/spot/api/public/market-data
const poloniexBaseApi = "https://api.poloniex.com"

type poloniexClient struct {
	exchangeBaseClient
}

func NewPoloniexClient(httpClient *http.Client) Adapter {
	return newPoloniexClient(poloniexBaseApi, httpClient)
}

func newPoloniexClient(baseURL string, httpClient *http.Client) *poloniexClient {
	return &poloniexClient{exchangeBaseClient: newExchangeBase(Poloniex, baseURL, httpClient)}
}

func (client *poloniexClient) extractError(respBytes []byte) error {
	if msg := gjson.GetBytes(respBytes, "message"); msg.Exists() && !gjson.GetBytes(respBytes, "close").Exists() {
		return errors.New(msg.String())
	}
	return nil
}

func (client *poloniexClient) GetTicker24h(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/markets/"+symbol+"/ticker24h", nil)
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}
	closePrice := number(gjson.GetBytes(respBytes, "close"))
	if closePrice == nil {
		return nil, errNoData
	}
	return &Quote{
		Price:        closePrice,
		ChangePct24h: percentChange(closePrice, number(gjson.GetBytes(respBytes, "open"))),
		High24h:      number(gjson.GetBytes(respBytes, "high")),
		Low24h:       number(gjson.GetBytes(respBytes, "low")),
		Volume24h:    number(gjson.GetBytes(respBytes, "quantity")),
	}, nil
}

func (client *poloniexClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.GetTicker24h)
}

func (client *poloniexClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/markets", nil)
	if err != nil {
		return nil, err
	}
	symbols := make(map[string]struct{})
	_, err = jsonparser.ArrayEach(respBytes, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		state, _ := jsonparser.GetString(value, "state")
		symbol, _ := jsonparser.GetString(value, "symbol")
		if state == "NORMAL" && symbol != "" {
			symbols[symbol] = struct{}{}
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode markets")
	}
	return symbols, nil
}

func init() {
	Register(NewPoloniexClient)
}
