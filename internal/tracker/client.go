package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ptpkit/internal/logging"
	"ptpkit/internal/ratelimit"
)

const (
	defaultUserAgent = "Wget/1.13.4"
	defaultTimeout   = 60 * time.Second
	maxBodyBytes     = 64 << 20
)

// Response is a fully buffered tracker response.
type Response struct {
	// URL is the final URL after redirects.
	URL        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode json from %s: %w", r.URL, err)
	}
	return nil
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", r.URL, err)
	}
	return doc, nil
}

// Client talks to the tracker on behalf of a single user.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	apiUser    string
	apiKey     string
	userAgent  string
	retry      RetryPolicy
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter shares an existing token bucket.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithCredentials sets the ApiUser/ApiKey headers sent on every request.
func WithCredentials(apiUser, apiKey string) Option {
	return func(c *Client) {
		c.apiUser = strings.TrimSpace(apiUser)
		c.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetry enables retries for transient statuses.
func WithRetry(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "tracker")
		}
	}
}

// New creates a tracker client rooted at baseURL. Without WithLimiter the
// client uses a private bucket of 3 tokens refilling at 0.5 tokens/second.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tracker base url required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.limiter == nil {
		client.limiter = ratelimit.New(3, 0.5, ratelimit.WithLogger(client.logger))
	}
	return client, nil
}

// BaseURL returns the site root with a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Limiter exposes the token bucket, mainly for consumed-token reporting.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Fetch issues a GET for path (relative to the base URL) with params.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) (*Response, error) {
	if c.apiUser == "" || c.apiKey == "" {
		return nil, ErrNotAuthenticated
	}
	target, err := c.resolve(path, params)
	if err != nil {
		return nil, err
	}

	attempts := 1
	if c.retry.Enabled() {
		attempts = c.retry.MaxAttempts
	}
	var resp *Response
	for attempt := 1; ; attempt++ {
		resp, err = c.do(ctx, target)
		if err != nil {
			return nil, err
		}
		if attempt >= attempts || !c.retry.retryable(resp.StatusCode) {
			break
		}
		wait := c.retry.backoff(attempt, resp.Header.Get("Retry-After"))
		c.logger.Debug("retrying tracker request",
			logging.String("url", target),
			logging.Int("status", resp.StatusCode),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
		)
		if err := sleepContext(ctx, wait); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	if err := checkCloudflare(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) resolve(path string, params url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)
	if len(params) > 0 {
		query := target.Query()
		for key, values := range params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

func (c *Client) do(ctx context.Context, target string) (*Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("ApiUser", c.apiUser)
	req.Header.Set("ApiKey", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("tracker request complete",
		logging.String("url", target),
		logging.Int("status", httpResp.StatusCode),
		logging.Int("bytes", len(body)),
	)
	return &Response{
		URL:        httpResp.Request.URL,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func checkCloudflare(resp *Response) error {
	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return nil
	}
	if !bytes.Contains(resp.Body, []byte("cf-error-overview")) {
		return nil
	}
	doc, err := resp.Document()
	if err != nil {
		return err
	}
	overview := doc.Find(".cf-error-overview")
	if overview.Length() == 0 {
		return nil
	}
	lines := strings.FieldsFunc(overview.Text(), func(r rune) bool { return r == '\n' || r == '\r' })
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return &BlockedError{URL: resp.URL.String(), Message: strings.Join(parts, "-")}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
