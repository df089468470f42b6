package main

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/bot"
	"github.com/hovsthvost89-eng/crypto-bot/cache"
	"github.com/hovsthvost89-eng/crypto-bot/config"
	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/http"
	"github.com/hovsthvost89-eng/crypto-bot/listing"
	"github.com/hovsthvost89-eng/crypto-bot/metrics"
	"github.com/hovsthvost89-eng/crypto-bot/scanner"
	"github.com/hovsthvost89-eng/crypto-bot/writer"
	"github.com/mattn/go-colorable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	cfg := config.Parse()

	httpClient := http.New(cfg.GetTimeout(), cfg.Proxy)
	m := metrics.New(nil)
	registry := exchange.NewRegistry(httpClient, m)

	if showExchanges, _ := pflag.CommandLine.GetBool("list-exchanges"); showExchanges {
		config.ListExchangesAndExit(registry.GetAllNames())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if name, _ := pflag.CommandLine.GetString("probe"); name != "" {
		probe(ctx, registry, name, cfg.TrackedAssets())
		return
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, m)
	}

	if cfg.Bot.Enabled {
		runBot(ctx, cfg, httpClient, registry, m)
		return
	}
	runTerminal(ctx, cfg, registry)
}

func probe(ctx context.Context, registry *exchange.Registry, name string, assets []exchange.Asset) {
	var results []*exchange.ProbeResult
	for _, asset := range assets {
		result, err := registry.TestExchange(ctx, name, asset)
		if err != nil {
			logrus.Fatalf("Failed to probe %s: %s", name, err)
		}
		results = append(results, result)
	}
	fmt.Fprintln(colorable.NewColorableStdout(), writer.FormatProbe(results))
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := stdhttp.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	logrus.Infof("Serving metrics on %s/metrics", addr)
	if err := stdhttp.ListenAndServe(addr, mux); err != nil {
		logrus.Errorf("Metrics server stopped, error: %s", err)
	}
}

// scannerCaches shares scan results through redis when configured, the scanners keep them in memory otherwise.
func scannerCaches(ctx context.Context, redisURL string) (mooners, newCoins scanner.Cache, closer func()) {
	if redisURL == "" {
		return nil, nil, func() {}
	}
	client, err := cache.NewRedisClient(ctx, redisURL)
	if err != nil {
		logrus.Warnf("Redis is not available, caching in memory: %s", err)
		return nil, nil, func() {}
	}
	logrus.Debugf("Caching scans in redis %s", redisURL)
	return cache.NewRedis[[]scanner.CoinSummary](client, "cryptobot:mooners"),
		cache.NewRedis[[]scanner.CoinSummary](client, "cryptobot:newcoins"),
		func() { closeRedis(client) }
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		logrus.Debugf("Failed to close redis client: %s", err)
	}
}

func runBot(ctx context.Context, cfg *config.Config, httpClient *http.Client, registry *exchange.Registry, m *metrics.Metrics) {
	assets := cfg.TrackedAssets()
	moonersCache, newCoinsCache, closeCaches := scannerCaches(ctx, cfg.RedisURL)
	defer closeCaches()

	scanners := registry.Scanners(scanner.Venues...)
	mooners := scanner.NewMoonersService(scanners,
		scanner.WithCache(moonersCache), scanner.WithTTL(cfg.Scanner.MoonersTTL), scanner.WithMetrics(m))
	newCoins := scanner.NewNewCoinsService(scanners, assets,
		scanner.WithCache(newCoinsCache), scanner.WithTTL(cfg.Scanner.NewCoinsTTL), scanner.WithMetrics(m))

	watcher := listing.NewWatcher(registry.Listers(),
		listing.WithInterval(cfg.Listings.Interval),
		listing.WithRetention(cfg.Listings.Retention),
		listing.WithTrackedAssets(assets),
		listing.WithMetrics(m),
	)
	if err := watcher.StartWatching(ctx); err != nil {
		logrus.Fatalf("Failed to start listings watcher: %s", err)
	}
	defer watcher.StopWatching()

	b, err := bot.New(cfg.Bot, &bot.Commands{
		Aggregator:      registry,
		MoonersScanner:  mooners,
		NewCoinsScanner: newCoins,
		Watcher:         watcher,
		Assets:          assets,
		MinGrowth:       cfg.Scanner.MinGrowth,
	}, httpClient.StdClient)
	if err != nil {
		logrus.Fatalf("Failed to start bot: %s", err)
	}
	b.Run(ctx)
	logrus.Info("Bot stopped")
}

func runTerminal(ctx context.Context, cfg *config.Config, registry *exchange.Registry) {
	refreshInterval := time.Duration(cfg.Refresh) * time.Second
	if refreshInterval != 0 {
		logrus.Infof("Auto refresh on every %d seconds", cfg.Refresh)
	}
	assets := cfg.TrackedAssets()

	tw := writer.NewTableWriter(cfg.Columns)
	logrus.SetOutput(tw)
	defer logrus.SetOutput(colorable.NewColorableStderr())

	for {
		tw.Render(registry.GetAllStats(ctx, assets))
		if refreshInterval == 0 {
			return
		}
		// Use a timer here so I can stall as much as I can to avoid exceeding API limit
		select {
		case <-ctx.Done():
			return
		case <-time.After(refreshInterval):
		}
	}
}
