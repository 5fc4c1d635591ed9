// Package rss turns RSS/Atom feeds into headline candidates.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/aqibot/internal/article"
)

// Source fetches one feed. Items keep the feed's order, newest first.
type Source struct {
	name   string
	url    string
	parser *gofeed.Parser
	logger *slog.Logger
}

// New creates a feed source with its own HTTP timeout.
func New(name, url string, timeout time.Duration, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Source{
		name:   name,
		url:    url,
		parser: parser,
		logger: logger,
	}
}

func (s *Source) Name() string {
	return s.name
}

// Fetch downloads and parses the feed. Items without a title or link are dropped.
func (s *Source) Fetch(ctx context.Context) ([]article.Candidate, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}

	items := make([]article.Candidate, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := CleanTitle(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}
		items = append(items, article.Candidate{Title: title, URL: link})
	}

	s.logger.Debug("feed loaded", "source", s.name, "items", len(items))
	return items, nil
}

// CleanTitle strips markup and entities from a feed title and collapses whitespace.
func CleanTitle(raw string) string {
	text := raw
	if strings.ContainsAny(raw, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}
