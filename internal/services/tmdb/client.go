package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/cinescout/internal/config"
	"github.com/amaumene/cinescout/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	maxBodySize         = 2 * 1024 * 1024
)

// Client wraps the TMDB v3 HTTP API
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   int
	cache        *cache.Cache
	group        singleflight.Group
	tracer       trace.Tracer
	logger       *logrus.Logger
}

// statusError is returned for non-2xx responses that carry no TMDB error body
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new TMDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.TMDBBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid TMDB base URL: %w", err)
	}

	imageBaseURL := strings.TrimRight(strings.TrimSpace(cfg.TMDBImageBaseURL), "/")
	if imageBaseURL == "" {
		imageBaseURL = defaultImageBaseURL
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		apiKey:       cfg.TMDBAPIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: cfg.TMDBMaxRetries,
		tracer:     otel.Tracer("github.com/amaumene/cinescout/internal/services/tmdb"),
		logger:     logger,
	}

	if cfg.TMDBRateLimit > 0 {
		burst := int(cfg.TMDBRateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.TMDBRateLimit), burst)
	}

	if cfg.CatalogCacheTTL > 0 {
		c.cache = cache.New(cfg.CatalogCacheTTL, 2*cfg.CatalogCacheTTL)
	}

	return c, nil
}

// PosterURL returns the display-ready URL of a poster path, or "" when there is none
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	if !strings.HasPrefix(posterPath, "/") {
		posterPath = "/" + posterPath
	}
	return c.imageBaseURL + posterPath
}

// get performs a GET against path. Identical concurrent requests share one
// round trip; the shared call is detached from any single caller's
// cancellation so one superseded caller cannot fail the others.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) (*Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(reqURL); ok {
			metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cached.(*Response).clone(), nil
		}
	}

	ch := c.group.DoChan(reqURL, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), endpoint, reqURL)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp := res.Val.(*Response)
		if c.cache != nil && !resp.Failed() {
			c.cache.SetDefault(reqURL, resp)
		}
		return resp.clone(), nil
	}
}

// fetch runs the request with rate limiting and retries on transient failures
func (c *Client) fetch(ctx context.Context, endpoint, reqURL string) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "tmdb."+endpoint, trace.WithAttributes(
		attribute.String("tmdb.endpoint", endpoint),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var result *Response
	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
			}
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = resp
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	retries := uint64(0)
	if c.maxRetries > 0 {
		retries = uint64(c.maxRetries)
	}

	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"wait_ms":  wait.Milliseconds(),
		}).Warn("TMDB request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify); err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if result.Failed() {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "domain_error").Inc()
		span.SetStatus(codes.Error, result.Message())
	} else {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	}
	span.SetAttributes(attribute.Int("tmdb.results", len(result.Results)))

	return result, nil
}

// doRequest performs one authenticated request and decodes the body
func (c *Client) doRequest(ctx context.Context, reqURL string) (*Response, error) {
	c.logger.WithField("url", reqURL).Debug("Making TMDB API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "cinescout/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result Response
	decodeErr := json.Unmarshal(body, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// TMDB reports API errors (bad key, unknown resource) in the body
		if decodeErr == nil && result.Failed() && !isRetryableStatus(resp.StatusCode) {
			c.logger.WithFields(logrus.Fields{
				"status_code": resp.StatusCode,
				"message":     result.Message(),
			}).Warn("TMDB API reported an error")
			return &result, nil
		}
		return nil, &statusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	c.logger.WithField("count", len(result.Results)).Debug("TMDB request completed")

	return &result, nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// isTransient reports whether err is worth retrying
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return isRetryableStatus(se.StatusCode)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
