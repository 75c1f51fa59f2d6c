// Package scoring talks to the external credibility scoring service. The
// service itself is opaque; only its request and response contract is used.
package scoring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ziadkadry99/skapsec/internal/analysis"
)

// API paths on the scoring service.
const (
	AnalyzePath = "/api/analyze"
	ComparePath = "/api/compare"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Service is the contract the pipeline depends on. A returned error always
// means the call could not be completed or its body could not be read as a
// result; service-reported errors come back inside the Outcome.
type Service interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Outcome, error)
	Compare(ctx context.Context, req analysis.ComparisonRequest) (analysis.Comparison, error)
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests at rpm per minute with the given
// burst. A non-positive rpm disables limiting.
func WithRateLimit(rpm, burst int) Option {
	return func(c *Client) {
		if rpm <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	}
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze submits one announcement.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Outcome, error) {
	_, body, err := c.Post(ctx, AnalyzePath, req.Fields(""))
	if err != nil {
		return analysis.Outcome{}, err
	}
	return analysis.DecodeOutcome(body)
}

// Compare submits two announcements in one request.
func (c *Client) Compare(ctx context.Context, req analysis.ComparisonRequest) (analysis.Comparison, error) {
	_, body, err := c.Post(ctx, ComparePath, req.Fields())
	if err != nil {
		return analysis.Comparison{}, err
	}
	return analysis.DecodeComparison(body)
}

// Post sends fields as a multipart form to path and returns the status and
// body. Non-2xx statuses are not errors: the service reports validation
// problems as JSON bodies with 4xx codes. The body is returned unparsed so
// callers can proxy it verbatim.
func (c *Client) Post(ctx context.Context, path string, fields url.Values) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	payload, contentType, err := encodeMultipart(fields)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func encodeMultipart(fields url.Values) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, vals := range fields {
		for _, v := range vals {
			if err := w.WriteField(key, v); err != nil {
				return nil, "", fmt.Errorf("encoding field %s: %w", key, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
