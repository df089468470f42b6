package exchange

import (
	"context"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://www.htx.com/en-us/opend/newApiPages/ (formerly Huobi)
const htxBaseApi = "https://api.huobi.pro"

type htxClient struct {
	exchangeBaseClient
}

func NewHTXClient(httpClient *http.Client) Adapter {
	return newHTXClient(htxBaseApi, httpClient)
}

func newHTXClient(baseURL string, httpClient *http.Client) *htxClient {
	return &htxClient{exchangeBaseClient: newExchangeBase(HTX, baseURL, httpClient)}
}

func (client *htxClient) extractError(respBytes []byte) error {
	status := gjson.GetBytes(respBytes, "status")
	if status.Exists() && strings.ToLower(status.String()) != "ok" {
		errMsg := gjson.GetBytes(respBytes, "err-msg").String()
		if errMsg == "" {
			errMsg = "unknown error message"
		}
		return errors.New(errMsg)
	}
	return nil
}

func (client *htxClient) GetMarketDetail(ctx context.Context, symbol string) (*Quote, error) {
	// HTX only knows lower case symbols
	respBytes, err := client.get(ctx, "/market/detail", map[string]string{"symbol": strings.ToLower(symbol)})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, err
	}
	tick := gjson.GetBytes(respBytes, "tick")
	if !tick.Exists() {
		return nil, errNoData
	}
	closePrice := number(tick.Get("close"))
	return &Quote{
		Price:        closePrice,
		ChangePct24h: percentChange(closePrice, number(tick.Get("open"))),
		High24h:      number(tick.Get("high")),
		Low24h:       number(tick.Get("low")),
		Volume24h:    number(tick.Get("amount")),
	}, nil
}

func (client *htxClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.GetMarketDetail)
}

func (client *htxClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/v2/settings/common/symbols", nil)
	if err != nil {
		return nil, err
	}
	symbols := make(map[string]struct{})
	_, err = jsonparser.ArrayEach(respBytes, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		symbol, _ := jsonparser.GetString(value, "symbol")
		if symbol == "" {
			// v2 settings abbreviate the field
			symbol, _ = jsonparser.GetString(value, "sc")
		}
		if symbol != "" {
			symbols[symbol] = struct{}{}
		}
	}, "data")
	if err != nil {
		return nil, errors.Wrap(err, "decode common symbols")
	}
	return symbols, nil
}

func init() {
	Register(NewHTXClient)
}
