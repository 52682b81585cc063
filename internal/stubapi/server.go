// Package stubapi serves canned responses shaped like the Market Intelligence
// analysis service. It backs local development and the client tests.
package stubapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "Market Intelligence API"

// Server serves the stub endpoints.
type Server struct {
	fx        *Fixtures
	available map[string]bool
	latency   time.Duration
	metrics   *metrics
	log       *slog.Logger
}

// requestIDHeader matches the header the marketintel client sends.
const requestIDHeader = "X-Request-ID"

// NewServer creates a stub server over fx. Each response is delayed by
// latency, which may be zero.
func NewServer(fx *Fixtures, latency time.Duration, log *slog.Logger) *Server {
	available := make(map[string]bool, len(fx.Tickers))
	for _, t := range fx.Tickers {
		available[t] = true
	}
	return &Server{fx: fx, available: available, latency: latency, metrics: newMetrics(), log: log}
}

// RegisterRoutes registers all stub routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /tickers", s.handleTickers)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /analysis/{ticker}", s.handleAnalysis)
	mux.Handle("GET /metrics", s.metrics.handler())
}

// Handler returns an http.Handler with CORS, request metrics and request
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(s.metrics.middleware(corsMiddleware(mux)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path,
			"query", r.URL.RawQuery, "request_id", r.Header.Get(requestIDHeader),
			"elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "service": ServiceName})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	tickers := slices.Clone(s.fx.Tickers)
	slices.Sort(tickers)
	tickers = slices.Compact(tickers)
	if tickers == nil {
		tickers = []string{}
	}
	writeJSON(w, tickers)
}

// handleSearch matches the query against symbol and name, case-insensitive,
// and keeps only assets in the available universe.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("q") {
		writeDetail(w, http.StatusUnprocessableEntity, "query parameter q is required")
		return
	}
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	out := []Asset{}
	if q == "" {
		writeJSON(w, out)
		return
	}
	for _, a := range s.fx.Assets {
		if !s.available[a.Symbol] {
			continue
		}
		if strings.Contains(strings.ToLower(a.Symbol), q) || strings.Contains(strings.ToLower(a.Name), q) {
			if a.Name == "" {
				a.Name = a.Symbol
			}
			out = append(out, a)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	if !s.available[ticker] {
		writeDetail(w, http.StatusNotFound, "No price data found for ticker")
		return
	}
	a, ok := s.fx.Analyses[ticker]
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "Inference error: no analysis fixture for "+ticker)
		return
	}
	a.Ticker = ticker
	if a.BullishArgs == nil {
		a.BullishArgs = []Argument{}
	}
	if a.BearishArgs == nil {
		a.BearishArgs = []Argument{}
	}
	writeJSON(w, a)
}
