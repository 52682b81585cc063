// Package analysis tracks the single outstanding analysis request of a
// session: its loading flag, its result, and its error message.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"marketintel/internal/domain"
	"marketintel/pkg/marketintel"
)

const (
	// FallbackHTTPMessage is shown when a failed response carries no detail.
	FallbackHTTPMessage = "Failed to fetch analysis"
	// FallbackMessage is shown when a failure has no message at all.
	FallbackMessage = "An unexpected error occurred"
)

// ErrEmptyTicker is returned by Start for a blank ticker.
var ErrEmptyTicker = errors.New("ticker is empty")

// Fetcher retrieves one analysis from the service.
type Fetcher interface {
	Analysis(ctx context.Context, ticker string) (*domain.AnalysisResult, error)
}

// State is a snapshot of the controller. While Loading is set, Result is nil
// and Err is empty.
type State struct {
	Ticker  string
	Loading bool
	Result  *domain.AnalysisResult
	Err     string
}

// Controller owns the current analysis result and its loading and error
// flags. Starting a new analysis clears the previous outcome immediately,
// and only the latest request may store an outcome.
type Controller struct {
	fetcher Fetcher
	log     *slog.Logger

	mu      sync.Mutex
	seq     uint64
	ticker  string
	loading bool
	result  *domain.AnalysisResult
	errMsg  string
}

// NewController creates a controller that fetches through f.
func NewController(f Fetcher, log *slog.Logger) *Controller {
	return &Controller{fetcher: f, log: log}
}

// Start marks a new analysis of ticker as in flight and returns its sequence
// number. The previous result and error are cleared.
func (c *Controller) Start(ticker string) (uint64, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return 0, ErrEmptyTicker
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.ticker = ticker
	c.loading = true
	c.result = nil
	c.errMsg = ""
	c.log.Info("analysis started", "ticker", ticker, "seq", c.seq)
	return c.seq, nil
}

// Finish stores the outcome of the request issued under seq. Outcomes of
// superseded requests are dropped; the return value reports whether this
// one was stored.
func (c *Controller) Finish(seq uint64, res *domain.AnalysisResult, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("dropping stale analysis", "seq", seq, "latest", c.seq)
		return false
	}

	c.loading = false
	if err != nil {
		c.result = nil
		c.errMsg = Message(err)
		c.log.Warn("analysis failed", "ticker", c.ticker, "error", err)
		return true
	}
	if res == nil {
		c.result = nil
		c.errMsg = FallbackMessage
		return true
	}
	c.result = res
	c.errMsg = ""
	if n := domain.MisplacedArguments(res); n > 0 {
		c.log.Warn("arguments listed against their sign", "ticker", res.Ticker, "count", n)
	}
	c.log.Info("analysis complete", "ticker", res.Ticker, "prediction", string(res.Prediction),
		"bullish", len(res.BullishArgs), "bearish", len(res.BearishArgs))
	return true
}

// Run performs a complete analysis of ticker and blocks until it resolves.
// The returned error is the fetch error, if any; the same failure is also
// recorded as the controller's error message.
func (c *Controller) Run(ctx context.Context, ticker string) error {
	seq, err := c.Start(ticker)
	if err != nil {
		return err
	}
	res, err := c.fetcher.Analysis(ctx, strings.TrimSpace(ticker))
	c.Finish(seq, res, err)
	return err
}

// Fetch exposes the underlying fetcher for callers that run the request
// themselves between Start and Finish.
func (c *Controller) Fetch(ctx context.Context, ticker string) (*domain.AnalysisResult, error) {
	return c.fetcher.Analysis(ctx, ticker)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Ticker:  c.ticker,
		Loading: c.loading,
		Result:  c.result,
		Err:     c.errMsg,
	}
}

// Message converts an analysis failure into the text shown to the user.
// Service errors use their detail, falling back to a generic message; other
// errors use their own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *marketintel.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return FallbackHTTPMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
