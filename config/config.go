package config

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Will be set by go-build
var (
	Version string
	Rev     string
)

//go:embed crypto_bot.example.yml
var exampleConfig string

const envPrefix = "CRYPTOBOT"

// flagKeys maps config keys to the flags that set them.
var flagKeys = map[string]string{
	"timeout":              "timeout",
	"proxy":                "proxy",
	"refresh":              "refresh",
	"show":                 "show",
	"debug":                "debug",
	"assets":               "assets",
	"bot.enabled":          "bot",
	"bot.token":            "bot-token",
	"bot.webhook-url":      "webhook-url",
	"bot.listen":           "listen",
	"listings.interval":    "listings-interval",
	"listings.retention":   "listings-retention",
	"scanner.mooners-ttl":  "mooners-ttl",
	"scanner.newcoins-ttl": "newcoins-ttl",
	"scanner.min-growth":   "min-growth",
	"redis-url":            "redis-url",
	"metrics-addr":         "metrics-addr",
}

func SetupLogging() {
	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	}
	logrus.SetFormatter(formatter)
	logrus.SetOutput(colorable.NewColorableStderr()) // For Windows
}

func defineFlags(flags *pflag.FlagSet) {
	flags.BoolP("version", "v", false, "Show version number")
	flags.BoolP("help", "h", false, "Show usage message")
	flags.MarkHidden("help")
	flags.BoolP("debug", "d", false, "Enable debug mode")
	flags.BoolP("list-exchanges", "l", false, "List supported exchanges")
	flags.String("probe", "", "Fetch every asset from a single exchange and report timings, then exit")
	flags.IntP("refresh", "r", 0, "Auto refresh on every specified seconds, "+
		"note every exchange has a rate limit, \ntoo frequent refresh may cause your IP banned by their servers")

	flags.StringP("config-file", "c", "", `Config file path, use "--example-config-file <path>" `+
		"to generate an example config file,\n"+
		"by default crypto-bot uses \"crypto_bot.yml\" in current directory, $HOME or /etc as config file")
	flags.String("example-config-file", "",
		"Generate example config file to the specified file path, by default it outputs to stdout")
	flags.Lookup("example-config-file").NoOptDefVal = "-"

	assets := make([]string, len(exchange.DefaultAssets))
	for i, asset := range exchange.DefaultAssets {
		assets[i] = string(asset)
	}
	flags.StringSliceP("assets", "a", assets, "Comma-separated assets to quote")
	flags.StringSliceP("show", "s", SupportedColumns(), "Only show comma-separated columns")
	flags.StringP("proxy", "p", "", "Proxy used when sending HTTP request \n(eg. "+
		"\"http://localhost:7777\", \"https://localhost:7777\", \"socks5://localhost:1080\")")
	flags.IntP("timeout", "t", 10, "HTTP request timeout in seconds")

	flags.Bool("bot", false, "Run the Telegram bot instead of the terminal table")
	flags.String("bot-token", "", "Telegram bot token, also read from $BOT_TOKEN")
	flags.String("webhook-url", "", "Public URL Telegram pushes updates to, long polling is used when empty")
	flags.String("listen", ":8080", "Address the webhook server listens on")
	flags.Duration("listings-interval", 5*time.Minute, "How often exchanges are checked for new listings")
	flags.Duration("listings-retention", 24*time.Hour, "How long detected listings are kept")
	flags.Duration("mooners-ttl", 3*time.Minute, "How long a mooners scan is reused")
	flags.Duration("newcoins-ttl", 5*time.Minute, "How long a new coins scan is reused")
	flags.Float64("min-growth", 10, "Default 24h growth in percent for /mooners")
	flags.String("redis-url", "", "Share scanner caches through redis (eg. \"redis://localhost:6379/0\")")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (eg. \":9090\")")
	flags.SortFlags = false
}

func Parse() *Config {
	SetupLogging()

	flags := pflag.CommandLine
	defineFlags(flags)
	flags.Usage = showUsageAndExit
	pflag.Parse()

	if showHelp, _ := flags.GetBool("help"); showHelp {
		showUsageAndExit()
	}

	if showVersion, _ := flags.GetBool("version"); showVersion {
		fmt.Fprintf(os.Stderr, "Version %s", Version)
		if Rev != "" {
			fmt.Fprintf(os.Stderr, ", build %s", Rev)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(0)
	}

	if exampleConfigFile, _ := flags.GetString("example-config-file"); exampleConfigFile != "" {
		writeExampleConfig(exampleConfigFile)
		os.Exit(0)
	}

	loadDotEnv(".env")

	cfg, err := load(flags, viper.GetViper())
	if err != nil {
		logrus.Fatalf("Failed to load config %q, error: %s\n", viper.ConfigFileUsed(), err)
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Debugln("Using config file:", viper.ConfigFileUsed())
	return cfg
}

// loadDotEnv exports the variables of an optional .env file; variables already set win.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Error reading %s: %v", path, err)
	}
}

// load resolves a Config from flags, the config file and the environment.
// Explicitly set flags win over env, env over the file, the file over flag defaults.
func load(flags *pflag.FlagSet, v *viper.Viper) (*Config, error) {
	for key, flagName := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flagName)); err != nil {
			return nil, errors.Wrapf(err, "bind flag %s", flagName)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("bot.token", envPrefix+"_BOT_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, errors.Wrap(err, "bind bot token env")
	}

	// Set configure file
	v.SetConfigName("crypto_bot") // name of config file (without extension)
	v.AddConfigPath(".")          // path to look for the config file in
	v.AddConfigPath("$HOME")      // optionally look for config in the HOME directory
	v.AddConfigPath("/etc")       // and /etc
	if configFile, _ := flags.GetString("config-file"); configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.Refresh < 0 {
		return errors.Errorf("refresh must not be negative, got %d", c.Refresh)
	}
	supported := SupportedColumns()
	for _, column := range c.Columns {
		found := false
		for _, s := range supported {
			if strings.EqualFold(column, s) {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("unknown column %q, supported columns are %s", column, strings.Join(supported, ", "))
		}
	}
	if c.Bot.Enabled && c.Bot.Token == "" {
		return errors.New("bot mode needs a token, set --bot-token or BOT_TOKEN")
	}
	return nil
}

func showUsageAndExit() {
	// Print usage message and exit
	fmt.Fprintf(os.Stderr, "\nUsage: %s [Options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "\nCompare spot prices of BTC, ETH, TON and friends across seven exchanges, "+
		"in the terminal or as a Telegram bot")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	pflag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nEnvironment:")
	fmt.Fprintf(os.Stderr, "  Every option can be set as %s_<OPTION>, nested keys use underscores (eg. %s_BOT_WEBHOOK_URL).\n",
		envPrefix, envPrefix)
	fmt.Fprintln(os.Stderr, "  A .env file in the working directory is loaded first.")
	os.Exit(0)
}

func writeExampleConfig(fpath string) {
	fout, err := os.Stdout, error(nil)
	if fpath != "-" {
		if _, err := os.Stat(fpath); err == nil {
			logrus.Warnf("%s already exists, skipping", fpath)
			return
		}
		if fout, err = os.Create(fpath); err != nil {
			logrus.Errorf("Failed to create config file %s, error: %v", fpath, err)
			return
		}
		defer fout.Close()
	}
	if _, err := fout.WriteString(exampleConfig); err != nil {
		logrus.Errorf("Failed to write config file %s, error: %v", fpath, err)
	} else if fout != os.Stdout {
		logrus.Infof("Write example config file to %s", fpath)
	}
}

func ListExchangesAndExit(exchanges []exchange.Exchange) {
	fmt.Fprintln(os.Stderr, "Supported exchanges:")
	for _, name := range exchanges {
		fmt.Fprintf(os.Stderr, " %s\n", name)
	}
	os.Exit(0)
}
