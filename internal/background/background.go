// Package background keeps the full-screen background image: the last one
// fetched through the image relay is cached in the local scope and replaced
// only on request.
package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

// DefaultMaxAge is how long a cached image is considered fresh by Refresh.
const DefaultMaxAge = 24 * time.Hour

var ErrNotConfigured = errors.New("image proxy not configured")

type Rotator struct {
	store   storage.Storage
	client  *http.Client
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

func NewRotator(store storage.Storage, baseURL string, httpClient *http.Client, logger *zap.Logger) *Rotator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Rotator{
		store:   store,
		client:  httpClient,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// Current returns the cached image without touching the network.
func (r *Rotator) Current(ctx context.Context) (models.BackgroundCache, bool, error) {
	values, err := r.store.Get(ctx, storage.ScopeLocal, models.KeyBackgroundURL, models.KeyBackgroundTime)
	if err != nil {
		return models.BackgroundCache{}, false, fmt.Errorf("error loading background: %w", err)
	}

	var cache models.BackgroundCache
	ok, err := storage.Decode(values, models.KeyBackgroundURL, &cache.URL)
	if err != nil || !ok || cache.URL == "" {
		return models.BackgroundCache{}, false, err
	}
	var fetchedAt int64
	if _, err := storage.Decode(values, models.KeyBackgroundTime, &fetchedAt); err != nil {
		r.logger.Debug("Ignoring unreadable background timestamp", zap.Error(err))
	} else if fetchedAt > 0 {
		cache.FetchedAt = time.UnixMilli(fetchedAt)
	}
	return cache, true, nil
}

// Next fetches a new random image and caches it. On failure the previous
// image stays cached.
func (r *Rotator) Next(ctx context.Context) (string, error) {
	if r.baseURL == "" {
		return "", ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/unsplash-random", nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching background: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("image proxy returned status %d", resp.StatusCode)
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("error decoding background response: %w", err)
	}
	if body.URL == "" {
		return "", errors.New("image proxy returned no url")
	}

	err = r.store.Set(ctx, storage.ScopeLocal, map[string]any{
		models.KeyBackgroundURL:  body.URL,
		models.KeyBackgroundTime: r.now().UnixMilli(),
	})
	if err != nil {
		// The image is still usable for this session.
		r.logger.Warn("Failed to cache background", zap.Error(err))
	}
	return body.URL, nil
}

// Refresh returns the cached image while it is younger than maxAge and
// fetches a new one otherwise.
func (r *Rotator) Refresh(ctx context.Context, maxAge time.Duration) (string, error) {
	cache, ok, err := r.Current(ctx)
	if err != nil {
		r.logger.Warn("Failed to read cached background", zap.Error(err))
	}
	if ok && r.now().Sub(cache.FetchedAt) < maxAge {
		return cache.URL, nil
	}
	url, err := r.Next(ctx)
	if err != nil && ok {
		r.logger.Warn("Keeping stale background", zap.Error(err))
		return cache.URL, nil
	}
	return url, err
}
