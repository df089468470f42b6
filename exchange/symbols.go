package exchange

import "strings"

// SymbolTable maps an asset to the venue-native spellings to try, per venue, in order.
// An empty list means the venue does not offer the pair.
type SymbolTable map[Asset]map[Exchange][]string

var DefaultSymbols = SymbolTable{
	BTC: {
		Binance:  {"BTCUSDT"},
		Bybit:    {"BTCUSDT"},
		OKX:      {"BTC-USDT"},
		Kraken:   {"XBTUSDT", "XBTUSD", "XXBTZUSD"},
		MEXC:     {"BTCUSDT"},
		HTX:      {"btcusdt"},
		Poloniex: {"BTC_USDT"},
	},
	ETH: {
		Binance:  {"ETHUSDT"},
		Bybit:    {"ETHUSDT"},
		OKX:      {"ETH-USDT"},
		Kraken:   {"ETHUSDT", "ETHUSD", "XETHZUSD"},
		MEXC:     {"ETHUSDT"},
		HTX:      {"ethusdt"},
		Poloniex: {"ETH_USDT"},
	},
	TRX: {
		Binance:  {"TRXUSDT"},
		Bybit:    {"TRXUSDT"},
		OKX:      {"TRX-USDT"},
		Kraken:   {"TRXUSDT", "TRXUSD"},
		MEXC:     {"TRXUSDT"},
		HTX:      {"trxusdt"},
		Poloniex: {"TRX_USDT"},
	},
	TON: {
		Binance:  {"TONUSDT"},
		Bybit:    {"TONUSDT"},
		OKX:      {"TON-USDT"},
		Kraken:   {},
		MEXC:     {"TONUSDT"},
		HTX:      {"tonusdt"},
		Poloniex: {"TON_USDT"},
	},
	USDC: {
		Binance:  {"USDCUSDT"},
		Bybit:    {"USDCUSDT"},
		OKX:      {"USDC-USDT"},
		Kraken:   {"USDCUSD", "USDCUSDT"},
		MEXC:     {"USDCUSDT"},
		HTX:      {"usdcusdt"},
		Poloniex: {"USDC_USDT"},
	},
	BNB: {
		Binance:  {"BNBUSDT"},
		Bybit:    {"BNBUSDT"},
		OKX:      {"BNB-USDT"},
		Kraken:   {"BNBUSD", "BNBUSDT"},
		MEXC:     {"BNBUSDT"},
		HTX:      {"bnbusdt"},
		Poloniex: {"BNB_USDT"},
	},
	SOL: {
		Binance:  {"SOLUSDT"},
		Bybit:    {"SOLUSDT"},
		OKX:      {"SOL-USDT"},
		Kraken:   {"SOLUSD", "SOLUSDT"},
		MEXC:     {"SOLUSDT"},
		HTX:      {"solusdt"},
		Poloniex: {"SOL_USDT"},
	},
	XRP: {
		Binance:  {"XRPUSDT"},
		Bybit:    {"XRPUSDT"},
		OKX:      {"XRP-USDT"},
		Kraken:   {"XRPUSD", "XRPUSDT", "XXRPZUSD"},
		MEXC:     {"XRPUSDT"},
		HTX:      {"xrpusdt"},
		Poloniex: {"XRP_USDT"},
	},
	ADA: {
		Binance:  {"ADAUSDT"},
		Bybit:    {"ADAUSDT"},
		OKX:      {"ADA-USDT"},
		Kraken:   {"ADAUSD", "ADAUSDT"},
		MEXC:     {"ADAUSDT"},
		HTX:      {"adausdt"},
		Poloniex: {"ADA_USDT"},
	},
}

// Lookup returns the candidates for (asset, exchange); unknown assets yield nil.
func (t SymbolTable) Lookup(asset Asset, exchange Exchange) []string {
	byExchange, ok := t[asset]
	if !ok {
		return nil
	}
	return byExchange[exchange]
}

// Venue-specific prefixes some assets are listed under, Kraken's XBT for one.
var assetAliases = map[Asset][]string{
	BTC: {"BTC", "XBT", "XXBT"},
	ETH: {"ETH", "XETH"},
	XRP: {"XRP", "XXRP"},
}

// Prefixes returns the case-insensitive symbol prefixes that identify asset on any venue.
func Prefixes(asset Asset) []string {
	if aliases, ok := assetAliases[asset]; ok {
		return aliases
	}
	return []string{strings.ToUpper(string(asset))}
}

// IsTrackedSymbol reports whether a venue symbol starts with one of the tracked assets or their aliases.
func IsTrackedSymbol(symbol string, tracked []Asset) bool {
	s := strings.ToUpper(symbol)
	for _, asset := range tracked {
		for _, prefix := range Prefixes(asset) {
			if strings.HasPrefix(s, prefix) {
				return true
			}
		}
	}
	return false
}
