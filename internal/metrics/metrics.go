// Package metrics exposes Prometheus instrumentation for the scanner.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScanCycles counts completed scan cycles by outcome ("ok" | "error").
	ScanCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_scan_cycles_total",
		Help: "Completed scan cycles by outcome",
	}, []string{"outcome"})

	// QuotesFetched counts quotes retrieved per venue.
	QuotesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_quotes_fetched_total",
		Help: "Quotes successfully fetched per venue",
	}, []string{"venue"})

	// VenueErrors counts failed venue polls per venue and error code.
	VenueErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_venue_errors_total",
		Help: "Failed venue polls per venue and error code",
	}, []string{"venue", "code"})

	// OpportunitiesFound counts persisted opportunities per instrument.
	OpportunitiesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_opportunities_total",
		Help: "Qualifying opportunities persisted per instrument",
	}, []string{"instrument"})

	// CycleDuration observes full cycle latency.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_scan_cycle_duration_seconds",
		Help:    "Scan cycle duration",
		Buckets: prometheus.DefBuckets,
	})
)

// Server serves the Prometheus scrape endpoint.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server on the given port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Metrics endpoint is best-effort; scanner keeps running.
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
