// Package marketintel is a Go SDK for the Market Intelligence analysis
// service: ticker listing, asset search, and explainability analyses.
package marketintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketintel/internal/domain"
)

const (
	// RequestIDHeader carries a per-request UUID the service may log.
	RequestIDHeader = "X-Request-ID"

	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 8 << 20
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Endpoint   string
	Detail     string // "detail" field of the error payload, if any
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
}

// Client talks to the analysis service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the service at baseURL. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status calls GET / and returns the service status.
func (c *Client) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	body, err := c.get(ctx, "/", nil)
	if err != nil {
		return nil, err
	}
	var st domain.ServiceStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("%w: status: %v", domain.ErrMalformedResponse, err)
	}
	return &st, nil
}

// Tickers calls GET /tickers and returns every analysable symbol.
func (c *Client) Tickers(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/tickers", nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeUniverse(body)
}

// Search calls GET /search with the raw query text.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchCandidate, error) {
	body, err := c.get(ctx, "/search", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	return domain.DecodeCandidates(body)
}

// Analysis calls GET /analysis/{ticker}.
func (c *Client) Analysis(ctx context.Context, ticker string) (*domain.AnalysisResult, error) {
	body, err := c.get(ctx, "/analysis/"+url.PathEscape(ticker), nil)
	if err != nil {
		return nil, err
	}
	return domain.DecodeAnalysis(body)
}

// get performs a GET request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("service request failed", "path", path, "request_id", reqID, "error", err)
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	c.log.Debug("service request", "path", path, "request_id", reqID, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Detail:     domain.DecodeErrorDetail(body),
		}
	}
	return body, nil
}
