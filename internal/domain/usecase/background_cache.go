package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/utils"
)

// CacheStore is the slice of the object store backing the background cache
// bucket.
type CacheStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// ImageProvider fetches one background image for a query; seed keys the
// keyless fallback source.
type ImageProvider interface {
	Fetch(ctx context.Context, query, seed string) ([]byte, error)
}

// BackgroundCache is a content-addressable cache of fetched backgrounds,
// keyed by the normalized query slug. Two racing misses for the same slug
// both fetch and both write; the content is equivalent per slug, so the only
// cost is the duplicate upstream call.
type BackgroundCache struct {
	Store    CacheStore
	Provider ImageProvider
}

func NewBackgroundCache(store CacheStore, provider ImageProvider) *BackgroundCache {
	return &BackgroundCache{Store: store, Provider: provider}
}

func (c *BackgroundCache) GetBackground(ctx context.Context, query string) ([]byte, error) {
	slug := utils.Slugify(query)
	key := slug + ".jpg"

	cached, err := c.Store.Download(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, s3.ErrObjectNotFound) {
		return nil, fmt.Errorf("cache read: %w", err)
	}

	fetched, err := c.Provider.Fetch(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("fetch background: %w", err)
	}

	if err := c.Store.Upload(ctx, key, fetched, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("cache write: %w", err)
	}

	return fetched, nil
}
