// Package server implements the HTTP API that exposes the RAG-to-Cypher
// translator. The server is started by the `ragcypher serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/ragcypher-go/internal/logging"
	"github.com/54b3r/ragcypher-go/internal/spi"
	"github.com/54b3r/ragcypher-go/internal/store"
	"github.com/54b3r/ragcypher-go/internal/translator"
)

// Translation outcomes used as the "outcome" metric label.
const (
	outcomeOK          = "ok"
	outcomePassthrough = "passthrough"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
)

// maxRequestBytes caps the POST /api/translate body.
const maxRequestBytes = 1 << 20

// New constructs a Server that translates with tr against searcher.
func New(tr spi.Translator, searcher spi.SimilaritySearcher, cfg *Config) (*Server, error) {
	if tr == nil {
		return nil, fmt.Errorf("server: translator must not be nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("server: searcher must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.TranslateTimeout == 0 {
		cfg.TranslateTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Must outlast the translation itself.
		cfg.WriteTimeout = cfg.TranslateTimeout + 10*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		translator: tr,
		searcher:   searcher,
		cfg:        cfg,
		log:        cfg.Logger,
		pingers:    cfg.Pingers,
		metrics:    newServerMetrics(cfg.MetricsRegistry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: RAGCYPHER_API_KEY is not set; /api/translate is unauthenticated")
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	rl.onReject = s.metrics.rateLimitedTotal.Inc
	s.stopRL = stop

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(rl),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// routes builds the request multiplexer. Only /api/translate is
// authenticated and rate limited; health checks and metrics stay open for
// orchestrators and scrapers.
func (s *Server) routes(rl *rateLimiter) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/translate", s.instrument("translate",
		authMiddleware(s.cfg.APIKey, rl.middleware(http.HandlerFunc(s.handleTranslate)))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	return requestLogger(s.log, mux)
}

// Handler returns the fully wired HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleTranslate handles POST /api/translate. Sentinel-prefixed queries
// are translated; anything else is echoed back with translated=false.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req translateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	s.metrics.translateInFlight.Inc()
	defer s.metrics.translateInFlight.Dec()
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TranslateTimeout)
	defer cancel()

	result, err := s.translator.Translate(ctx, req.Query, s.searcher)
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = outcomeTimeout
		}
		s.observe(outcome, start)
		log.Error("translate failed", slog.String("outcome", outcome), slog.Any("error", err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	translated := strings.HasPrefix(req.Query, translator.Prefix)
	if !translated {
		s.observe(outcomePassthrough, start)
		writeJSON(w, http.StatusOK, translateResponse{Result: result})
		return
	}
	s.observe(outcomeOK, start)

	if s.cfg.History != nil {
		rec := store.Translation{Input: req.Query, Cypher: result, IndexName: s.cfg.IndexName}
		if err := s.cfg.History.Append(r.Context(), rec); err != nil {
			log.Warn("history append failed", slog.Any("error", err))
		}
	}

	writeJSON(w, http.StatusOK, translateResponse{Result: result, Translated: true})
}

// observe records one finished translation.
func (s *Server) observe(outcome string, start time.Time) {
	s.metrics.translateRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.translateDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// statusFor maps a translation error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, translator.ErrPrecondition):
		return http.StatusPreconditionFailed
	case errors.Is(err, translator.ErrUpstreamQuery), errors.Is(err, translator.ErrProtocolViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
