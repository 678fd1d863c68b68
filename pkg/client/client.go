// Package client implements the HTTP transport used to reach the
// Metricore REST API. It handles authentication, retries, rate limiting,
// and circuit breaking for every outbound call.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"metricore-grafana-plugin/pkg/ratelimit"
)

// ClientError represents an error specifically related to Metricore
// client operations.
type ClientError struct {
	Msg string
	Err error // Wrapped error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metricore client error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("metricore client error: %s", e.Msg)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// APIError reports a non-2xx response from the Metricore API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("metricore API returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds the connection settings for one datasource instance.
type Config struct {
	URL       string
	APIToken  string
	Timeout   time.Duration
	RetryMax  int
	UserAgent string
	// RequestsPerSecond caps the outbound call rate; Burst allows short
	// spikes above it.
	RequestsPerSecond float64
	Burst             float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		RetryMax:          3,
		UserAgent:         "metricore-grafana-plugin",
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// Client talks to the Metricore REST API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *retryablehttp.Client
	breaker   *gobreaker.CircuitBreaker
	limiter   *ratelimit.RateLimiter
}

// New validates cfg and builds a Client. URL and APIToken are required;
// zero values elsewhere fall back to DefaultConfig.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, &ClientError{Msg: "Metricore URL cannot be empty"}
	}
	if cfg.APIToken == "" {
		return nil, &ClientError{Msg: "Metricore API token cannot be empty"}
	}
	base, err := url.Parse(cfg.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ClientError{Msg: fmt.Sprintf("invalid Metricore URL %q", cfg.URL), Err: err}
	}

	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	retry := retryablehttp.NewClient()
	retry.HTTPClient = &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   cfg.Timeout,
	}
	retry.RetryMax = cfg.RetryMax
	retry.Logger = log.DefaultLogger

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "metricore-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:   strings.TrimSuffix(base.String(), "/"),
		token:     cfg.APIToken,
		userAgent: cfg.UserAgent,
		http:      retry,
		breaker:   breaker,
		limiter:   ratelimit.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// Do performs one JSON round-trip against the API. A non-2xx status
// comes back as an *APIError; when out is non-nil the response body is
// decoded into it.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Msg: "rate limit wait aborted", Err: err}
	}

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Msg: "encoding request body", Err: err}
		}
		payload = raw
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.endpoint(path), payload)
	if err != nil {
		return &ClientError{Msg: "building request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return &ClientError{Msg: fmt.Sprintf("%s %s failed", method, path), Err: err}
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Msg: "decoding response body", Err: err}
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// FetchData runs one data query against POST api/data.
func (c *Client) FetchData(ctx context.Context, req DataRequest) (*DataResponse, error) {
	var out DataResponse
	if err := c.Do(ctx, http.MethodPost, "api/data", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login probes connectivity with the configured credentials.
func (c *Client) Login(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "api/login", nil, nil)
}

// FetchMetrics returns the metric catalog.
func (c *Client) FetchMetrics(ctx context.Context) ([]MetricDescriptor, error) {
	var out MetricsResponse
	if err := c.Do(ctx, http.MethodGet, "api/metrics", nil, &out); err != nil {
		return nil, err
	}
	return out.Metrics, nil
}

// FetchLabelValues returns the values a label takes over the supplied
// window. Null entries are preserved.
func (c *Client) FetchLabelValues(ctx context.Context, req LabelValuesRequest) ([]*string, error) {
	var out LabelValuesResponse
	if err := c.Do(ctx, http.MethodPost, "api/labels", req, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// FetchSegmentations returns the dimensions metric can segment by. An
// empty metric asks for the globally available dimensions.
func (c *Client) FetchSegmentations(ctx context.Context, metric string) ([]string, error) {
	path := "api/segmentations"
	if metric != "" {
		path += "?metric=" + url.QueryEscape(metric)
	}
	var out SegmentationsResponse
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Segmentations, nil
}
