package exchange

import (
	"context"

	"github.com/buger/jsonparser"
	"github.com/hovsthvost89-eng/crypto-bot/http"
)

// https://mexcdevelop.github.io/apidocs/spot_v3_en/
const mexcBaseApi = "https://api.mexc.com"

type mexcClient struct {
	exchangeBaseClient
}

func NewMEXCClient(httpClient *http.Client) Adapter {
	return newMEXCClient(mexcBaseApi, httpClient)
}

func newMEXCClient(baseURL string, httpClient *http.Client) *mexcClient {
	return &mexcClient{exchangeBaseClient: newExchangeBase(MEXC, baseURL, httpClient)}
}

func (client *mexcClient) Get24hStatistics(ctx context.Context, symbol string) (*Quote, error) {
	respBytes, err := client.get(ctx, "/api/v3/ticker/24hr", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}
	return decodeBinanceTicker(respBytes)
}

func (client *mexcClient) FetchAsset(ctx context.Context, asset Asset) *TickerSnapshot {
	return client.fetchAsset(ctx, asset, client.Get24hStatistics)
}

func (client *mexcClient) ListSymbols(ctx context.Context) (map[string]struct{}, error) {
	respBytes, err := client.get(ctx, "/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}
	return listBinanceSymbols(respBytes, func(value []byte) bool {
		allowed, _ := jsonparser.GetBoolean(value, "isSpotTradingAllowed")
		return allowed
	})
}

func init() {
	Register(NewMEXCClient)
}
