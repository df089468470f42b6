package config

import (
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
)

const (
	ColumnExchange     = "Exchange"
	ColumnAsset        = "Asset"
	ColumnPrice        = "Price"
	ColumnChange24hPct = "%Change(24h)"
	ColumnHigh24h      = "High(24h)"
	ColumnLow24h       = "Low(24h)"
	ColumnVolume24h    = "Volume(24h)"
	ColumnSymbol       = "Symbol"
	ColumnNote         = "Note"
)

func SupportedColumns() []string {
	return []string{ColumnExchange, ColumnAsset, ColumnPrice, ColumnChange24hPct, ColumnHigh24h, ColumnLow24h,
		ColumnVolume24h, ColumnSymbol, ColumnNote}
}

type BotConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Token      string `mapstructure:"token"`
	WebhookURL string `mapstructure:"webhook-url"`
	Listen     string `mapstructure:"listen"`
}

type ListingsConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
}

type ScannerConfig struct {
	MoonersTTL  time.Duration `mapstructure:"mooners-ttl"`
	NewCoinsTTL time.Duration `mapstructure:"newcoins-ttl"`
	MinGrowth   float64       `mapstructure:"min-growth"`
}

type Config struct {
	Timeout     int            `mapstructure:"timeout"`
	Proxy       string         `mapstructure:"proxy"`
	Refresh     int            `mapstructure:"refresh"`
	Columns     []string       `mapstructure:"show"`
	Debug       bool           `mapstructure:"debug"`
	Assets      []string       `mapstructure:"assets"`
	Bot         BotConfig      `mapstructure:"bot"`
	Listings    ListingsConfig `mapstructure:"listings"`
	Scanner     ScannerConfig  `mapstructure:"scanner"`
	RedisURL    string         `mapstructure:"redis-url"`
	MetricsAddr string         `mapstructure:"metrics-addr"`
}

func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TrackedAssets returns the configured assets, the default set when none are configured.
func (c *Config) TrackedAssets() []exchange.Asset {
	if assets := exchange.ParseAssets(c.Assets); len(assets) > 0 {
		return assets
	}
	return exchange.DefaultAssets
}
