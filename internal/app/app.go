// Package app runs one bot cycle: fetch forecasts, build the report, pick a
// headline, then publish or print the post.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deusflow/aqibot/internal/aqi"
	"github.com/deusflow/aqibot/internal/article"
	"github.com/deusflow/aqibot/internal/metrics"
	"github.com/deusflow/aqibot/internal/post"
)

// StationFetcher downloads station payloads in the given order.
type StationFetcher interface {
	FetchAll(ctx context.Context, ids []string) ([]aqi.Station, error)
}

// ArticleSelector picks the headline for a post and records it.
type ArticleSelector interface {
	Select(ctx context.Context, maxTitleLen int) (article.Candidate, article.Origin, error)
}

// Publisher sends a post and returns its identifier.
type Publisher interface {
	Publish(ctx context.Context, p post.Post) (string, error)
}

type App struct {
	stationIDs []string
	stations   StationFetcher
	selector   ArticleSelector
	publisher  Publisher // nil on dry runs
	metrics    *metrics.Metrics
	logger     *slog.Logger
	out        io.Writer
}

// New builds an App. Pass a nil publisher to print the post instead of
// sending it.
func New(stationIDs []string, stations StationFetcher, selector ArticleSelector, publisher Publisher, m *metrics.Metrics, logger *slog.Logger, out io.Writer) *App {
	return &App{
		stationIDs: stationIDs,
		stations:   stations,
		selector:   selector,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		out:        out,
	}
}

// Run executes one cycle. Any failure ends the cycle and is returned.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	p, err := a.run(ctx)
	if err != nil {
		a.metrics.SetError(err)
		return err
	}
	a.metrics.SetLastRun(time.Since(start))

	fmt.Fprintf(a.out, "Char Count:%d\n", p.Length())
	fmt.Fprintln(a.out, "========================")
	fmt.Fprintln(a.out, p.Text)
	return nil
}

func (a *App) run(ctx context.Context) (post.Post, error) {
	stations, err := a.stations.FetchAll(ctx, a.stationIDs)
	if err != nil {
		a.metrics.StationFetchErrors.Inc()
		return post.Post{}, fmt.Errorf("fetch stations: %w", err)
	}
	a.metrics.StationsFetched.Add(float64(len(stations)))

	report, err := aqi.BuildReport(stations)
	if err != nil {
		return post.Post{}, fmt.Errorf("build report: %w", err)
	}
	a.metrics.ReportsBuilt.Inc()

	budget := post.Budget(report)
	a.logger.Info("report built", "stations", len(stations), "title_budget", budget)

	c, origin, err := a.selector.Select(ctx, budget)
	if err != nil {
		return post.Post{}, fmt.Errorf("select article: %w", err)
	}
	a.metrics.ArticlesSelected.WithLabelValues(string(origin)).Inc()

	p := post.Assemble(report, c)
	a.metrics.PostLength.Set(float64(p.Length()))
	if p.Length() > post.MaxLength {
		a.logger.Warn("post exceeds length limit", "length", p.Length(), "limit", post.MaxLength)
	}

	if a.publisher == nil {
		a.logger.Info("dry run, not publishing", "origin", origin, "url", c.URL)
		return p, nil
	}

	uri, err := a.publisher.Publish(ctx, p)
	if err != nil {
		return post.Post{}, fmt.Errorf("publish: %w", err)
	}
	a.metrics.PostsPublished.Inc()
	a.logger.Info("post sent", "uri", uri, "origin", origin)
	return p, nil
}
