package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/internal/utils"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

const (
	lookupTimeout = 10 * time.Second
	cacheTTL      = 24 * time.Hour
)

// Cache stores lyrics bodies keyed by track title
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Client looks lyrics up from a lyrics.ovh style REST API:
// GET {endpoint}/{artist}/{title} -> {"lyrics": "..."}
type Client struct {
	endpoint   string
	httpClient *http.Client
	cache      Cache
	logger     *logger.Logger
}

// New creates a lyrics client. cache may be nil; a small in-memory
// cache is used then.
func New(endpoint string, cache Cache, log *logger.Logger) *Client {
	if cache == nil {
		cache = NewMemoryCache(200)
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: lookupTimeout},
		cache:      cache,
		logger:     log,
	}
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
	Error  string `json:"error,omitempty"`
}

// Lookup fetches lyrics for a track title. Keying on the bare title is
// imprecise but matches what the upstream API supports; titles shaped
// like "Artist - Title" are split for better matches.
func (c *Client) Lookup(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.ErrLyricsUnavailable
	}

	cacheKey := "lyrics:" + strings.ToLower(title)
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		return cached, nil
	}

	artist, track := splitTitle(title)

	reqURL := fmt.Sprintf("%s/%s/%s", c.endpoint, url.PathEscape(artist), url.PathEscape(track))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrLyricsUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("title", title).Debug("Lyrics request failed")
		return "", fmt.Errorf("%w: %v", errs.ErrLyricsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.ErrLyricsUnavailable
	}

	var body lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrLyricsUnavailable, err)
	}

	text := strings.TrimSpace(body.Lyrics)
	if text == "" {
		return "", errs.ErrLyricsUnavailable
	}

	c.cache.Set(ctx, cacheKey, text)
	return text, nil
}

// splitTitle separates "Artist - Title" into its parts. Titles without
// a separator use the title as both parts.
func splitTitle(title string) (artist, track string) {
	if idx := strings.Index(title, " - "); idx > 0 {
		return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
	}
	return title, title
}

// RedisCache backs the lyrics cache with Redis
type RedisCache struct {
	client *redislib.Client
}

// NewRedisCache wraps an existing Redis client
func NewRedisCache(client *redislib.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string) {
	c.client.Set(ctx, key, value, cacheTTL)
}

// MemoryCache is the in-process fallback when Redis is disabled
type MemoryCache struct {
	cache *utils.SmartCache
}

// NewMemoryCache creates a bounded in-memory lyrics cache
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{cache: utils.NewSmartCache(maxSize, cacheTTL)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	value, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	return value.(string), true
}

func (c *MemoryCache) Set(ctx context.Context, key, value string) {
	c.cache.Set(key, value)
}
