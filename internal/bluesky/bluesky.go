// Package bluesky publishes posts through the AT Protocol XRPC API.
package bluesky

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/jonboulle/clockwork"

	"github.com/deusflow/aqibot/internal/post"
	"github.com/deusflow/aqibot/internal/retry"
)

// ErrAuth is returned when the handle/password pair is rejected.
var ErrAuth = errors.New("bluesky authentication failed")

const (
	postCollection = "app.bsky.feed.post"
	linkFeature    = "app.bsky.richtext.facet#link"
)

type Client struct {
	host       string
	handle     string
	password   string
	httpClient *http.Client
	clock      clockwork.Clock
	retry      retry.RetryConfig
	logger     *slog.Logger
}

// NewClient creates a publisher for one account.
func NewClient(host, handle, password string, timeout time.Duration, clock clockwork.Clock, retryCfg retry.RetryConfig, logger *slog.Logger) *Client {
	return &Client{
		host:       host,
		handle:     handle,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		retry:      retryCfg,
		logger:     logger,
	}
}

// record converts an assembled post into the feed post lexicon record.
func (c *Client) record(p post.Post) *bsky.FeedPost {
	rec := &bsky.FeedPost{
		LexiconTypeID: postCollection,
		Text:          p.Text,
		CreatedAt:     c.clock.Now().UTC().Format(time.RFC3339),
	}
	if p.Facet.URI != "" {
		rec.Facets = []*bsky.RichtextFacet{{
			Index: &bsky.RichtextFacet_ByteSlice{
				ByteStart: int64(p.Facet.ByteStart),
				ByteEnd:   int64(p.Facet.ByteEnd),
			},
			Features: []*bsky.RichtextFacet_Features_Elem{{
				RichtextFacet_Link: &bsky.RichtextFacet_Link{
					LexiconTypeID: linkFeature,
					Uri:           p.Facet.URI,
				},
			}},
		}}
	}
	return rec
}

// Publish logs in and creates the post, retrying transient failures.
// It returns the record URI.
func (c *Client) Publish(ctx context.Context, p post.Post) (string, error) {
	var uri string
	err := retry.WithRetry(ctx, c.clock, c.retry, func() error {
		xc := &xrpc.Client{Client: c.httpClient, Host: c.host}

		s, err := atproto.ServerCreateSession(ctx, xc, &atproto.ServerCreateSession_Input{
			Identifier: c.handle,
			Password:   c.password,
		})
		if err != nil {
			c.logger.Warn("bluesky login failed", "error", err)
			return classify("com.atproto.server.createSession", err)
		}
		xc.Auth = &xrpc.AuthInfo{AccessJwt: s.AccessJwt, RefreshJwt: s.RefreshJwt, Handle: s.Handle, Did: s.Did}

		out, err := atproto.RepoCreateRecord(ctx, xc, &atproto.RepoCreateRecord_Input{
			Repo:       s.Did,
			Collection: postCollection,
			Record:     &lexutil.LexiconTypeDecoder{Val: c.record(p)},
		})
		if err != nil {
			c.logger.Warn("bluesky post failed", "error", err)
			return classify("com.atproto.repo.createRecord", err)
		}
		uri = out.Uri
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("post published", "uri", uri)
	return uri, nil
}

// classify marks client errors as permanent. Server and transport errors may
// be retried.
func classify(method string, err error) error {
	var xerr *xrpc.Error
	if !errors.As(err, &xerr) {
		return fmt.Errorf("%s: %w", method, err)
	}

	switch {
	case xerr.StatusCode == http.StatusUnauthorized:
		return retry.Permanent(fmt.Errorf("%w: %s", ErrAuth, method))
	case xerr.StatusCode >= 500:
		return fmt.Errorf("bluesky API error: %s status %d: %w", method, xerr.StatusCode, err)
	default:
		return retry.Permanent(fmt.Errorf("bluesky API error: %s status %d: %w", method, xerr.StatusCode, err))
	}
}
