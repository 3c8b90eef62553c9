package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Source types.
const (
	SourceBundle       = "bundle"
	SourceRemote       = "remote"
	SourceAlphaVantage = "alphavantage"
)

// Config holds all configuration for the stonks client.
type Config struct {
	// Where quotes come from: bundle, remote or alphavantage
	Source string `mapstructure:"source"`

	// Bundle source
	BundlePath string        `mapstructure:"bundle_path"`
	FetchDelay time.Duration `mapstructure:"fetch_delay"`

	// Remote source
	RemoteURL string `mapstructure:"remote_url"`

	// Alpha Vantage source
	AlphavantageAPIKey  string   `mapstructure:"alphavantage_api_key"`
	AlphavantageBaseURL string   `mapstructure:"alphavantage_base_url"`
	Symbols             []string `mapstructure:"symbols"`
	Featured            []string `mapstructure:"featured"`

	// Limit for HTTP sources, 0 keeps the per-API default
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Retries inside one HTTP fetch, before the load chain sees the error
	TransportRetries int `mapstructure:"transport_retries"`

	// Favorites persistence
	FavoritesPath string `mapstructure:"favorites_path"`
	FavoritesKey  string `mapstructure:"favorites_key"`

	// Load chain
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffUnit time.Duration `mapstructure:"backoff_unit"`

	LogLevel string `mapstructure:"log_level"`

	// Command line only
	Toggles   []string `mapstructure:"toggle"`
	Ascending bool     `mapstructure:"ascending"`
}

// NewFlagSet returns the command line flags. Every config key has a flag;
// flags that are set override env vars and the config file.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("source", SourceBundle, "quote source: bundle, remote or alphavantage")
	fs.String("bundle-path", "stocksData.json", "path of the bundled quotes file")
	fs.Duration("fetch-delay", time.Second, "simulated latency of the bundle source")
	fs.String("remote-url", "", "URL of a JSON quotes document")
	fs.String("alphavantage-api-key", "", "Alpha Vantage API key")
	fs.String("alphavantage-base-url", "https://www.alphavantage.co/query", "Alpha Vantage endpoint")
	fs.StringSlice("symbols", nil, "symbols to quote from Alpha Vantage")
	fs.StringSlice("featured", nil, "symbols marked as featured")
	fs.Float64("requests-per-second", 0, "request rate limit for HTTP sources")
	fs.Int("transport-retries", 0, "HTTP retries of 408, 429 and 5xx responses within one fetch")
	fs.String("favorites-path", defaultFavoritesPath(), "file that stores favorites")
	fs.String("favorites-key", "favoriteStocks", "key of the favorites list in the store")
	fs.Int("max-retries", 3, "automatic retries of a failed load")
	fs.Duration("backoff-unit", time.Second, "base delay between retries")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")

	fs.StringArray("toggle", nil, "toggle a favorite before loading (repeatable)")
	fs.Bool("ascending", false, "sort favorites by ascending change")

	return fs
}

// Load reads configuration from flags, environment variables and an optional
// config file, in that order of precedence. fs must come from NewFlagSet and
// be parsed already.
//
// Environment variables use the STONKS_ prefix, e.g. STONKS_SOURCE or
// STONKS_ALPHAVANTAGE_API_KEY.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("stonks")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stonks")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Flag names use dashes, keys use underscores
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr == nil {
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Symbols = normalize(config.Symbols)
	config.Featured = normalize(config.Featured)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings the selected source needs.
func (c *Config) Validate() error {
	var problems []string

	switch c.Source {
	case SourceBundle:
		if c.BundlePath == "" {
			problems = append(problems, "bundle_path is required for the bundle source")
		}
	case SourceRemote:
		if c.RemoteURL == "" {
			problems = append(problems, "remote_url is required for the remote source")
		}
	case SourceAlphaVantage:
		if c.AlphavantageAPIKey == "" {
			problems = append(problems, "STONKS_ALPHAVANTAGE_API_KEY is required for the alphavantage source")
		}
		if len(c.Symbols) == 0 {
			problems = append(problems, "symbols are required for the alphavantage source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown source %q", c.Source))
	}

	if c.MaxRetries < 0 {
		problems = append(problems, "max_retries must not be negative")
	}
	if c.BackoffUnit < 0 {
		problems = append(problems, "backoff_unit must not be negative")
	}
	if c.TransportRetries < 0 {
		problems = append(problems, "transport_retries must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		problems = append(problems, "requests_per_second must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return l, nil
}

// normalize uppercases symbols and drops blanks. Env vars arrive as one
// comma or space separated string.
func normalize(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func defaultFavoritesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".stonks-favorites.json"
	}
	return filepath.Join(dir, "stonks", "favorites.json")
}
