package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Poll loop metrics
	PollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenmon_polls_total",
			Help: "Total monitor poll ticks executed",
		},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tokenmon_poll_duration_seconds",
			Help:    "Poll tick duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Data source metrics
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmon_fetches_total",
			Help: "Upstream usage fetches by outcome",
		},
		[]string{"outcome"},
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tokenmon_fetch_duration_seconds",
			Help:    "Upstream usage fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmon_fetch_errors_total",
			Help: "Upstream usage fetch failures by category",
		},
		[]string{"category"},
	)

	// Cache metrics
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmon_cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenmon_cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Usage metrics
	BurnRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokenmon_burn_rate_tokens_per_minute",
			Help: "Current trailing-hour burn rate in tokens per minute",
		},
	)

	TokensUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokenmon_tokens_used",
			Help: "Tokens consumed in the active session block",
		},
	)

	TokenLimit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokenmon_token_limit",
			Help: "Active token quota",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		PollsTotal,
		PollDuration,
		FetchesTotal,
		FetchDuration,
		FetchErrors,
		CacheHits,
		CacheMisses,
		BurnRate,
		TokensUsed,
		TokenLimit,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
