package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/deusflow/aqibot/internal/article"
	"github.com/deusflow/aqibot/internal/bluesky"
	"github.com/deusflow/aqibot/internal/config"
	"github.com/deusflow/aqibot/internal/metrics"
	"github.com/deusflow/aqibot/internal/ratelimit"
	"github.com/deusflow/aqibot/internal/retry"
	"github.com/deusflow/aqibot/internal/rss"
	"github.com/deusflow/aqibot/internal/storage"
	"github.com/deusflow/aqibot/internal/waqi"
)

// OpenHistory returns the history backend named by the config and a close
// function for it.
func OpenHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (article.HistoryStore, func() error, error) {
	switch cfg.HistoryBackend {
	case "postgres":
		h, err := storage.OpenSQLHistory(ctx, storage.Postgres, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Close, nil
	case "sqlite":
		h, err := storage.OpenSQLHistory(ctx, storage.SQLite, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Close, nil
	case "file":
		return storage.NewFileHistory(cfg.HistoryFile), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

// NewRand seeds the article picker. A zero seed uses the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// FromConfig wires the production clients. The returned close function
// releases the history backend.
func FromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, out io.Writer) (*App, func() error, error) {
	store, closeStore, err := OpenHistory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	stations := waqi.NewClient(cfg.WAQIBaseURL, cfg.WAQIToken, cfg.RequestTimeout, ratelimit.NewPacer(cfg.StationInterval, m.StationWaitSeconds), logger)

	selector := article.NewSelector(
		rss.New("primary", cfg.PrimaryFeed, cfg.RequestTimeout, logger),
		rss.New("secondary", cfg.SecondaryFeed, cfg.RequestTimeout, logger),
		store,
		NewRand(cfg.RandomSeed),
		article.Config{HistoryLimit: cfg.HistoryLimit, MaxAttempts: cfg.FeedAttempts},
		logger,
	)

	// a nil *bluesky.Client stored in the interface would not compare nil
	var publisher Publisher
	if cfg.Live {
		publisher = bluesky.NewClient(cfg.BlueskyHost, cfg.BlueskyHandle, cfg.BlueskyPassword, cfg.RequestTimeout,
			clockwork.NewRealClock(),
			retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true},
			logger)
	}

	return New(cfg.Stations, stations, selector, publisher, m, logger, out), closeStore, nil
}
