// Package imagesource fetches background images from Pexels when an API key
// is configured, falling back to a keyless seeded image URL otherwise. The
// seed keeps the fallback stable per slug, which is what makes the cache
// tolerate racing writers: both fetch equivalent content.
package imagesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	pexelsSearchURL    = "https://api.pexels.com/v1/search"
	DefaultFallbackURL = "https://picsum.photos/seed/{seed}/1024/768"
)

type Provider struct {
	httpClient  *http.Client
	apiKey      string
	fallbackURL string
}

func NewProvider(httpClient *http.Client, apiKey, fallbackURL string) *Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if fallbackURL == "" {
		fallbackURL = DefaultFallbackURL
	}
	return &Provider{
		httpClient:  httpClient,
		apiKey:      apiKey,
		fallbackURL: fallbackURL,
	}
}

// Fetch downloads one background image for the query. seed keys the keyless
// fallback so repeat fetches for the same slug return equivalent content.
func (p *Provider) Fetch(ctx context.Context, query, seed string) ([]byte, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return p.fetchFallback(ctx, seed)
	}

	imageURL, err := p.searchPexels(ctx, query)
	if err != nil {
		return nil, err
	}
	if imageURL == "" {
		// No hits for the query; the seeded source always answers.
		return p.fetchFallback(ctx, seed)
	}

	return p.getBytes(ctx, imageURL)
}

func (p *Provider) searchPexels(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s?query=%s&per_page=1", pexelsSearchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("build pexels request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pexels search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("pexels search returned status %d", res.StatusCode)
	}

	var result struct {
		Photos []struct {
			Src struct {
				Large string `json:"large"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode pexels response: %w", err)
	}

	if len(result.Photos) == 0 {
		return "", nil
	}
	return result.Photos[0].Src.Large, nil
}

func (p *Provider) fetchFallback(ctx context.Context, seed string) ([]byte, error) {
	seeded := strings.ReplaceAll(p.fallbackURL, "{seed}", url.QueryEscape(seed))
	return p.getBytes(ctx, seeded)
}

func (p *Provider) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("image source returned status %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}
