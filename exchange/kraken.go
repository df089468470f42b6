package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// https://docs.kraken.com/api/docs/rest-api/get-ticker-information
const krakenBaseApi = "https://api.kraken.com"

type krakenClient struct {
	exchangeBaseClient
}

func NewKrakenClient(httpClient *http.Client) Adapter {
	return newKrakenClient(krakenBaseApi, httpClient)
}

func newKrakenClient(baseURL string, httpClient *http.Client) *krakenClient {
	return &krakenClient{exchangeBaseClient: newExchangeBase(Kraken, baseURL, httpClient)}
}

// Check to see if we have error in the response
func (client *krakenClient) extractError(respBytes []byte) error {
	errorArray := gjson.GetBytes(respBytes, "error").Array()
	if len(errorArray) > 0 {
		if errMsg := errorArray[0].String(); len(errMsg) != 0 {
			return errors.New(errMsg)
		}
	}
	return nil
}

func (client *krakenClient) GetTicker(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/0/public/Ticker", map[string]string{"pair": symbol})
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, errors.Wrap(err, "kraken get ticker")
	}

	// The result is keyed by Kraken's own pair name (XXBTZUSD for XBTUSD), take the first one
	var ticker gjson.Result
	gjson.GetBytes(respBytes, "result").ForEach(func(_, value gjson.Result) bool {
		ticker = value
		return false
	})
	if !ticker.Exists() {
		return nil, errNoData
	}

	last := number(ticker.Get("c.0"))
	return &Quote{
		Price:        last,
		ChangePct24h: percentChange(last, number(ticker.Get("o"))),
		High24h:      number(ticker.Get("h.1")),
		Low24h:       number(ticker.Get("l.1")),
		Volume24h:    number(ticker.Get("v.1")),
	}, nil
}

func (client *krakenClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.GetTicker)
}

func (client *krakenClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/0/public/AssetPairs", nil)
	if err != nil {
		return nil, err
	}
	if err := client.extractError(respBytes); err != nil {
		return nil, errors.Wrap(err, "kraken get asset pairs")
	}
	symbols := make(map[string]struct{})
	err = jsonparser.ObjectEach(respBytes, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		symbols[string(key)] = struct{}{}
		return nil
	}, "result")
	if err != nil {
		return nil, errors.Wrap(err, "decode asset pairs")
	}
	return symbols, nil
}

func init() {
	Register(NewKrakenClient)
}
