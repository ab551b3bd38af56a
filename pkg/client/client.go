package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"climate-analyzer/pkg/backoff"
	cache "climate-analyzer/pkg/local_cache"
	"climate-analyzer/pkg/logger"
)

const (
	ArchiveEndpoint = "https://archive-api.open-meteo.com/v1/archive"
	DateLayout      = "2006-01-02"
)

type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("open-meteo: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("open-meteo: HTTP %d: %s", e.StatusCode, e.Reason)
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == 429 || apiErr.StatusCode == 503)
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

type ArchiveResponse struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Timezone   string            `json:"timezone"`
	DailyUnits map[string]string `json:"daily_units"`
	Daily      struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// DailyPoint is one calendar day. Missing values from the API are NaN.
type DailyPoint struct {
	Date          time.Time
	Precipitation float64
}

type Config struct {
	Endpoint          string
	Timezone          string
	PrecipitationUnit string
	Retries           int
	BackoffFactor     float64
	FetchTimeout      time.Duration
	RateLimit         RateLimiterConfig
}

func DefaultConfig() Config {
	return Config{
		Endpoint:          ArchiveEndpoint,
		Timezone:          "America/New_York",
		PrecipitationUnit: "inch",
		Retries:           5,
		BackoffFactor:     0.2,
		FetchTimeout:      5 * time.Minute,
		RateLimit:         DefaultRateLimiterConfig(),
	}
}

type Client struct {
	config        Config
	cache         *cache.Cache
	rateLimiter   *RateLimiter
	httpClient    *http.Client
	bytesReceived int64
	bytesMu       sync.RWMutex
}

// NewClient builds a client; c may be nil to disable response caching.
func NewClient(c *cache.Cache, cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.PrecipitationUnit == "" {
		cfg.PrecipitationUnit = def.PrecipitationUnit
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  false,
		MaxIdleConnsPerHost: 5,
	}

	return &Client{
		config:      cfg,
		cache:       c,
		rateLimiter: NewRateLimiter(cfg.RateLimit),
		httpClient:  &http.Client{Transport: transport},
	}
}

func (c *Client) GetRateLimiter() *RateLimiter {
	return c.rateLimiter
}

func (c *Client) addBytesReceived(n int64) {
	c.bytesMu.Lock()
	defer c.bytesMu.Unlock()
	c.bytesReceived += n
}

func (c *Client) GetBytesReceived() int64 {
	c.bytesMu.RLock()
	defer c.bytesMu.RUnlock()
	return c.bytesReceived
}

func (c *Client) archiveURL(city City, start, end time.Time) string {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(city.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(city.Longitude, 'f', -1, 64))
	params.Set("start_date", start.Format(DateLayout))
	params.Set("end_date", end.Format(DateLayout))
	params.Set("daily", "precipitation_sum")
	params.Set("timezone", c.config.Timezone)
	params.Set("precipitation_unit", c.config.PrecipitationUnit)
	return c.config.Endpoint + "?" + params.Encode()
}

// FetchResult carries the parsed days plus whether the network was used.
type FetchResult struct {
	Points []DailyPoint
	Cached bool
}

// FetchDaily returns daily precipitation for [start, end] (inclusive dates).
func (c *Client) FetchDaily(ctx context.Context, city City, start, end time.Time) (*FetchResult, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format(DateLayout), start.Format(DateLayout))
	}

	reqURL := c.archiveURL(city, start, end)
	startStr, endStr := start.Format(DateLayout), end.Format(DateLayout)

	if c.cache != nil {
		if body, ok := c.cache.Get(reqURL); ok {
			points, err := ParseArchive(body)
			if err == nil {
				logger.LogFetchArrival(city.Name, startStr, endStr, len(points), 200, int64(len(body)), true)
				return &FetchResult{Points: points, Cached: true}, nil
			}
			logger.Warnf("%s: ignoring unreadable cache entry: %v", city.Name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	strategy := backoff.NewStrategy(
		backoff.WithFactor(c.config.BackoffFactor),
		backoff.WithMaxRetries(c.config.Retries),
		backoff.WithMaxInterval(2*time.Minute),
		backoff.WithMaxElapsedTime(0),
	)

	var body []byte
	var status int
	attempt := func() error {
		var err error
		body, status, err = c.doRequest(ctx, reqURL)
		return err
	}
	var err error
	if c.config.Retries == 0 {
		err = attempt()
	} else {
		err = backoff.DoNotify(ctx, strategy, attempt, func(err error, retry int, wait time.Duration) {
			logger.Warnf("%s: retry %d/%d in %s: %v", city.Name, retry, c.config.Retries,
				formatDuration(wait), err)
		})
	}
	if err != nil {
		logger.LogFetchArrival(city.Name, startStr, endStr, 0, status, 0, false)
		return nil, fmt.Errorf("fetch %s: %w", city.Name, err)
	}

	points, err := ParseArchive(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", city.Name, err)
	}
	logger.LogFetchArrival(city.Name, startStr, endStr, len(points), status, int64(len(body)), false)

	if c.cache != nil {
		if err := c.cache.Put(reqURL, body); err != nil {
			logger.Warnf("%s: failed to cache response: %v", city.Name, err)
		}
	}
	return &FetchResult{Points: points}, nil
}

// doRequest performs one attempt. Errors that should not be retried are
// wrapped with backoff.Permanent.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.rateLimiter.RecordFailure(0, 0)
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(ctx.Err())
		}
		logger.Errorf("%s -> ERROR: %v", req.URL.Path, err)
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.rateLimiter.RecordFailure(0, 0)
		return nil, resp.StatusCode, err
	}
	c.addBytesReceived(int64(len(body)))

	if resp.StatusCode != http.StatusOK {
		var wait time.Duration
		if resp.StatusCode == 429 || resp.StatusCode == 503 {
			wait = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		}
		c.rateLimiter.RecordFailure(resp.StatusCode, wait)
		logger.LogHTTP(req.URL.Path, resp.StatusCode, true)
		apiErr := &APIError{StatusCode: resp.StatusCode, Reason: parseReason(body)}
		if resp.StatusCode == 429 || resp.StatusCode == 503 {
			return nil, resp.StatusCode, backoff.RetryAfter(apiErr, wait)
		}
		if resp.StatusCode >= 500 {
			return nil, resp.StatusCode, apiErr
		}
		return nil, resp.StatusCode, backoff.Permanent(apiErr)
	}

	c.rateLimiter.RecordSuccess()
	return body, resp.StatusCode, nil
}

// parseRetryAfter reads a Retry-After value given in seconds or as an
// HTTP date. Unparseable or past values yield zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func parseReason(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

// ParseArchive decodes an archive API body into daily points.
func ParseArchive(body []byte) ([]DailyPoint, error) {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error {
		return nil, &APIError{StatusCode: http.StatusOK, Reason: e.Reason}
	}

	var resp ArchiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	times := resp.Daily.Time
	values := resp.Daily.PrecipitationSum
	if len(times) != len(values) {
		return nil, fmt.Errorf("daily arrays differ in length: %d dates, %d values", len(times), len(values))
	}

	points := make([]DailyPoint, 0, len(times))
	for i, ts := range times {
		d, err := time.Parse(DateLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", ts, err)
		}
		v := math.NaN()
		if values[i] != nil {
			v = *values[i]
		}
		points = append(points, DailyPoint{Date: d, Precipitation: v})
	}
	return points, nil
}
