package exchange

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	NoteUnsupported = "pair not supported on this exchange"
	NoteNoData      = "no data / fetch error"
	NoteLoadError   = "load error"
)

var errNoData = errors.New("no data in response")

type exchangeBaseClient struct {
	*http.Client
	name    Exchange
	baseURL *url.URL
	symbols SymbolTable
}

func newExchangeBase(name Exchange, rawURL string, httpClient *http.Client) exchangeBaseClient {
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		logrus.Fatalln(err)
	}
	return exchangeBaseClient{Client: httpClient, name: name, baseURL: baseURL, symbols: DefaultSymbols}
}

func (client *exchangeBaseClient) GetName() Exchange {
	return client.name
}

func (client *exchangeBaseClient) GetSymbols(asset Asset) []string {
	return client.symbols.Lookup(asset, client.name)
}

func (client *exchangeBaseClient) buildURL(endpoint string) string {
	u := *client.baseURL
	u.Path = path.Join(u.Path, endpoint)
	return u.String()
}

func (client *exchangeBaseClient) get(ctx context.Context, endpoint string, query map[string]string) ([]byte, error) {
	return client.GetJSON(ctx, client.buildURL(endpoint), http.WithQuery(query))
}

// fetchAsset resolves a symbol for asset, runs fetch with it and folds any failure into the snapshot.
func (client *exchangeBaseClient) fetchAsset(ctx context.Context, asset Asset, fetch func(context.Context, string) (*Quote, error)) *TickerSnapshot {
	snapshot := &TickerSnapshot{Exchange: client.name, Asset: asset}

	quote, symbol, err := resolve(ctx, client.GetSymbols(asset), fetch)
	if err != nil {
		if errors.Is(err, ErrNoSymbol) {
			snapshot.Note = NoteUnsupported
		} else {
			snapshot.Note = NoteNoData
			logrus.WithError(err).WithFields(logrus.Fields{
				"exchange": client.name,
				"asset":    asset,
			}).Warn("Failed to fetch ticker")
		}
		return snapshot
	}

	snapshot.SymbolUsed = symbol
	snapshot.Price = quote.Price
	snapshot.ChangePct24h = quote.ChangePct24h
	snapshot.High24h = quote.High24h
	snapshot.Low24h = quote.Low24h
	snapshot.Volume24h = quote.Volume24h
	return snapshot
}

// number reads a JSON number or numeric string; missing, null, empty or garbage values give nil.
func number(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// scaled multiplies a reported fraction into a percent.
func scaled(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v * factor
	return &f
}

// percentChange derives the 24h change from last and open; nil when open is missing or zero.
func percentChange(last, open *float64) *float64 {
	if last == nil || open == nil || *open == 0 {
		return nil
	}
	pct := (*last - *open) / *open * 100
	return &pct
}

// orZero flattens an optional number for full-market scans, which treat missing as zero.
func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
