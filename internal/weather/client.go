// Package weather adapts the Buienradar public feed into normalized station
// readings. The feed schema is loose; parsing is heuristic by necessity and
// kept independent of the pipeline.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
)

const DefaultFeedURL = "https://data.buienradar.nl/2.0/feed/json"

type Client struct {
	httpClient *http.Client
	feedURL    string
}

func NewClient(httpClient *http.Client, feedURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Client{httpClient: httpClient, feedURL: feedURL}
}

func (c *Client) GetStationReadings(ctx context.Context) ([]entity.StationReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("weather feed returned status %d", res.StatusCode)
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather feed: %w", err)
	}

	return ParseStationReadings(payload)
}
