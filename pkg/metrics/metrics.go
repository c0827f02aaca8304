// Package metrics exposes the collector's Prometheus metrics over HTTP.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination) and registered via promauto with the default
// registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the collector.
var Registry = prometheus.DefaultRegisterer

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 5 * time.Second

// Handler returns a mux serving /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Serve listens on addr and serves Handler until ctx is done.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serve(ctx, ln, logger)
}

func serve(ctx context.Context, ln net.Listener, logger zerolog.Logger) error {
	server := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	logger.Info().Msg("Metrics server stopped")
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - workshop_requests_total{status} (Counter): QueryFiles requests by HTTP status or failure kind
//   - workshop_request_duration_seconds (Histogram): Request duration
//
// Retry Metrics (pkg/client):
//   - workshop_retries_total (Counter): Retries performed
//   - workshop_retry_backoff_seconds (Histogram): Wait before each retry
//   - workshop_retry_exhausted_total (Counter): Page requests that failed every attempt
//
// Cache Metrics (pkg/cache):
//   - workshop_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - workshop_cache_misses_total (Counter): Cache misses
//   - workshop_cache_bytes_total{operation} (Counter): Bytes read from and written to the cache
//   - workshop_cache_errors_total{operation} (Counter): Cache operation errors
//
// Usage Metrics (pkg/ratelimit):
//   - workshop_api_calls_today (Gauge): Calls recorded today for the active key
//   - workshop_api_usage_warnings_total{level} (Counter): Calls made above a usage threshold
//
// Collection Metrics (pkg/pagination):
//   - workshop_pages_collected_total (Counter): Pages accepted
//   - workshop_items_collected_total (Counter): Records accepted
//   - workshop_collection_duration_seconds (Histogram): Run duration
//   - workshop_collection_failures_total{reason} (Counter): Failed runs by reason
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(workshop_cache_hits_total[5m])) /
//   (sum(rate(workshop_cache_hits_total[5m])) + sum(rate(workshop_cache_misses_total[5m])))
//
//   # Retry Rate
//   rate(workshop_retries_total[5m]) / rate(workshop_requests_total[5m])
//
//   # Daily Budget Usage
//   workshop_api_calls_today / 100000
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(workshop_request_duration_seconds_bucket[5m]))
