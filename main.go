package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"stonks/internal/alphavantage"
	"stonks/internal/bundle"
	"stonks/internal/config"
	"stonks/internal/controller"
	"stonks/internal/coordinator"
	"stonks/internal/favorites"
	"stonks/internal/fetcher"
	"stonks/internal/ratelimit"
	"stonks/internal/remote"
)

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

// run is main without the process plumbing. It returns the exit code.
func run(ctx context.Context, args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	flags := config.NewFlagSet("stonks")
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	source, err := newSource(cfg, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create source: %v\n", err)
		return 1
	}

	store := favorites.NewFileStore(fs, cfg.FavoritesPath)
	ctrl, err := controller.New(ctx, source, store,
		controller.WithLogger(logger),
		controller.WithMaxRetries(cfg.MaxRetries),
		controller.WithBackoffUnit(cfg.BackoffUnit),
		controller.WithFavoritesKey(cfg.FavoritesKey))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load favorites: %v\n", err)
		return 1
	}
	defer ctrl.Close()

	for _, id := range cfg.Toggles {
		if err := ctrl.ToggleFavorite(ctx, id); err != nil {
			// The toggle still applies to this run.
			fmt.Fprintf(stderr, "Failed to save favorite %s: %v\n", id, err)
		}
	}
	ctrl.SetSortOrder(cfg.Ascending)

	coord := coordinator.New(ctrl, stdout)
	if err := coord.Run(ctx); err != nil {
		logger.Debug("load chain ended with error", "error", err)
		return 1
	}
	return 0
}

// newSource builds the configured quote source. Transport retries default to
// off, leaving the controller's backoff as the only retry layer.
func newSource(cfg *config.Config, fs afero.Fs) (fetcher.Source, error) {
	switch cfg.Source {
	case config.SourceBundle:
		return bundle.NewSource(fs, cfg.BundlePath, cfg.FetchDelay), nil
	case config.SourceRemote:
		src := remote.NewSource(cfg.RemoteURL, newLimiter(cfg, ratelimit.APIRemote))
		return src.WithTransportRetries(cfg.TransportRetries), nil
	case config.SourceAlphaVantage:
		return alphavantage.NewStockSource(
			cfg.AlphavantageAPIKey,
			cfg.AlphavantageBaseURL,
			cfg.Symbols,
			cfg.Featured,
			newLimiter(cfg, ratelimit.APIAlphaVantage),
		).WithTransportRetries(cfg.TransportRetries), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func newLimiter(cfg *config.Config, api ratelimit.API) *ratelimit.Limiter {
	l := ratelimit.New()
	if cfg.RequestsPerSecond > 0 {
		l.Set(api, cfg.RequestsPerSecond, 1)
	}
	return l
}
