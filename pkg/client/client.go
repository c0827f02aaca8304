// Package client provides the Steam Web API page fetcher for the
// IPublishedFileService/QueryFiles endpoint, with bounded exponential
// backoff retry, optional Redis page caching and call-usage tracking.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/workshop-collector/pkg/cache"
	"github.com/Sternrassler/workshop-collector/pkg/clock"
	"github.com/Sternrassler/workshop-collector/pkg/logging"
	"github.com/Sternrassler/workshop-collector/pkg/ratelimit"
	"github.com/Sternrassler/workshop-collector/pkg/workshop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the QueryFiles endpoint of the public Steam Web API.
	DefaultBaseURL = "https://api.steampowered.com/IPublishedFileService/QueryFiles/v1/"

	// DefaultUserAgent identifies the collector to Steam.
	DefaultUserAgent = "workshop-collector/1.0"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// PageSize is the number of records requested per page.
	PageSize = 100

	// queryTypeRankedByPublicationDate is the only query type that supports cursors.
	queryTypeRankedByPublicationDate = "1"
)

// Prometheus metrics for page requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workshop_requests_total",
		Help: "Total QueryFiles requests by outcome",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "workshop_request_duration_seconds",
		Help:    "QueryFiles request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Client fetches QueryFiles pages.
// A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	usage      *ratelimit.Tracker
	clock      clock.Clock
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the full QueryFiles URL.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout for one HTTP exchange. Ignored when HTTPClient is set.
	Timeout time.Duration

	// Retry
	Retry RetryConfig

	// Cache stores decoded pages in Redis (optional).
	Cache *cache.Manager

	// Usage counts calls against the daily API budget (optional).
	Usage *ratelimit.Tracker

	// Clock drives backoff waits (default: system clock).
	Clock clock.Clock

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new page fetcher.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.BaseBackoff < 0 {
		return nil, fmt.Errorf("base backoff must not be negative (got %v)", cfg.Retry.BaseBackoff)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative (got %v)", cfg.Timeout)
	}

	logger := logging.NewLogger("steam-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cache:      cfg.Cache,
		usage:      cfg.Usage,
		clock:      clk,
		config:     cfg,
		logger:     logger,
	}, nil
}

// FetchPage retrieves the page at cursor for appID. An empty cursor
// requests the first page.
//
// Every failure is retried up to Retry.MaxAttempts times in total, waiting
// Retry.Backoff(attempt) between attempts. When all attempts fail the error
// wraps ErrMaxRetriesExceeded and the last failure.
func (c *Client) FetchPage(ctx context.Context, apiKey string, appID uint32, cursor string) (*workshop.Page, error) {
	if cursor == "" {
		cursor = workshop.InitialCursor
	}

	query := BuildQuery(apiKey, appID, cursor)
	cacheKey := cache.CacheKey{
		Endpoint:    c.baseURL.Path,
		QueryParams: query,
	}

	if page := c.cachedPage(ctx, cacheKey); page != nil {
		return page, nil
	}

	var page *workshop.Page
	err := retryWithBackoff(ctx, c.config.Retry, c.clock, c.logger, func(attempt int) error {
		p, err := c.do(ctx, apiKey, query, attempt)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.storePage(ctx, cacheKey, page)

	return page, nil
}

// BuildQuery returns the QueryFiles parameters for one page.
func BuildQuery(apiKey string, appID uint32, cursor string) url.Values {
	query := url.Values{}
	query.Set("key", apiKey)
	query.Set("query_type", queryTypeRankedByPublicationDate)
	query.Set("cursor", cursor)
	query.Set("numperpage", strconv.Itoa(PageSize))
	query.Set("appid", strconv.FormatUint(uint64(appID), 10))
	query.Set("return_details", "true")
	return query
}

// do performs one HTTP exchange and decodes the page.
func (c *Client) do(ctx context.Context, apiKey string, query url.Values, attempt int) (*workshop.Page, error) {
	u := *c.baseURL
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.recordUsage(ctx, apiKey)

	c.logger.Debug().
		Str("cursor", query.Get("cursor")).
		Int("attempt", attempt).
		Msg("Executing QueryFiles request")

	startTime := c.clock.Now()
	defer func() {
		requestDuration.Observe(c.clock.Now().Sub(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues("read_error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, newAPIError(resp.StatusCode, resp.Status, body)
	}

	var envelope workshop.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		requestsTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	return &envelope.Response, nil
}

// cachedPage returns the cached page for key, or nil.
func (c *Client) cachedPage(ctx context.Context, key cache.CacheKey) *workshop.Page {
	if c.cache == nil {
		return nil
	}

	page, err := c.cache.GetPage(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
		return nil
	}

	c.logger.Debug().Str("key", key.String()).Msg("Page served from cache")
	return page
}

// storePage caches page under key when it is well-formed.
func (c *Client) storePage(ctx context.Context, key cache.CacheKey, page *workshop.Page) {
	if c.cache == nil || !cache.Cacheable(page) {
		return
	}

	if err := c.cache.SetPage(ctx, key, page); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache page")
		return
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("ttl", c.cache.TTL()).
		Msg("Cached page")
}

// recordUsage counts one outbound call. Failures never block the request.
func (c *Client) recordUsage(ctx context.Context, apiKey string) {
	if c.usage == nil {
		return
	}
	if _, err := c.usage.Record(ctx, apiKey); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record API usage")
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
