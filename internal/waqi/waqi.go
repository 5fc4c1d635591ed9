// Package waqi fetches station forecasts from the World Air Quality Index API.
package waqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/aqibot/internal/aqi"
	"github.com/deusflow/aqibot/internal/ratelimit"
)

// ErrStationStatus is returned when the API answers with a non-ok status.
var ErrStationStatus = errors.New("waqi station error")

// envelope is the outer payload. On error "data" holds a message string.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	pacer      *ratelimit.Pacer
	logger     *slog.Logger
}

// NewClient creates a client that waits on pacer before every request.
func NewClient(baseURL, token string, timeout time.Duration, pacer *ratelimit.Pacer, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		pacer:      pacer,
		logger:     logger,
	}
}

func (c *Client) stationURL(id string) string {
	return fmt.Sprintf("%s/feed/utah/%s/?token=%s", c.baseURL, id, url.QueryEscape(c.token))
}

// FetchStation downloads and decodes one station's payload.
func (c *Client) FetchStation(ctx context.Context, id string) (aqi.Station, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return aqi.Station{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.stationURL(id), nil)
	if err != nil {
		return aqi.Station{}, fmt.Errorf("build request for %s: %w", id, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return aqi.Station{}, fmt.Errorf("fetch station %s: %w", id, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return aqi.Station{}, fmt.Errorf("fetch station %s: http status %d", id, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return aqi.Station{}, fmt.Errorf("decode station %s: %w", id, err)
	}

	if env.Status != "ok" {
		var msg string
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			msg = string(env.Data)
		}
		return aqi.Station{}, fmt.Errorf("%w: %s: %s", ErrStationStatus, id, msg)
	}

	var data aqi.StationData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return aqi.Station{}, fmt.Errorf("decode station %s data: %w", id, err)
	}

	c.logger.Debug("station fetched", "station", id, "pollutants", len(data.Forecast.Daily))
	return aqi.Station{ID: id, Data: data}, nil
}

// FetchAll fetches stations in order. The first failure stops the run.
func (c *Client) FetchAll(ctx context.Context, ids []string) ([]aqi.Station, error) {
	stations := make([]aqi.Station, 0, len(ids))
	for _, id := range ids {
		s, err := c.FetchStation(ctx, id)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, nil
}
