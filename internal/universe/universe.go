// Package universe holds the session's cached list of analysable symbols.
package universe

import (
	"context"
	"log/slog"
	"sync"

	"marketintel/internal/domain"
)

// Fetcher lists every symbol the service can analyse.
type Fetcher interface {
	Tickers(ctx context.Context) ([]string, error)
}

// Cache is filled at most once per session and is read-only afterwards.
type Cache struct {
	mu      sync.RWMutex
	symbols []string
	filled  bool
	tried   bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// fill stores a copy of symbols if the cache has not been filled yet. It
// reports whether the symbols were stored.
func (c *Cache) fill(symbols []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tried = true
	if c.filled {
		return false
	}
	c.symbols = append([]string(nil), symbols...)
	c.filled = true
	return true
}

// Load fetches the universe on the first call. Later calls, including calls
// after a failed first attempt, do nothing. A fetch failure is logged and
// leaves the cache empty.
func (c *Cache) Load(ctx context.Context, f Fetcher, log *slog.Logger) {
	c.mu.Lock()
	if c.tried {
		c.mu.Unlock()
		return
	}
	c.tried = true
	c.mu.Unlock()

	symbols, err := f.Tickers(ctx)
	if err != nil {
		log.Warn("fetching ticker universe", "error", err)
		return
	}
	if c.fill(symbols) {
		log.Info("ticker universe loaded", "symbols", len(symbols))
	}
}

// Filled reports whether the universe has been populated.
func (c *Cache) Filled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filled
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.symbols)
}

// Candidates returns the universe as dropdown entries named "Available Asset".
func (c *Cache) Candidates() []domain.SearchCandidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.SearchCandidate, 0, len(c.symbols))
	for _, s := range c.symbols {
		out = append(out, domain.UniverseCandidate(s))
	}
	return out
}
