// Package metrics exposes booth counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
)

var namespace = "booth"

var (
	photosTakenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_taken_total",
			Help:      "Total number of captured photos",
		},
	)

	photosFilteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_filtered_total",
			Help:      "Total number of photos replaced by a filtered copy",
		},
		[]string{"filter"},
	)

	printsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prints_total",
			Help:      "Total number of print attempts by result",
		},
		[]string{"result"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of workflow state transitions",
		},
		[]string{"from", "to"},
	)

	faultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_faults_total",
			Help:      "Total number of state failures redirected to recovery",
		},
		[]string{"state"},
	)

	activeState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_state",
			Help:      "Currently active workflow state (1=active)",
		},
		[]string{"state"},
	)
)

// PhotoTaken counts a captured photo.
func PhotoTaken() {
	photosTakenTotal.Inc()
}

// PhotoFiltered counts a filtered photo.
func PhotoFiltered(filter string) {
	photosFilteredTotal.WithLabelValues(filter).Inc()
}

// PrintResult counts a print attempt.
func PrintResult(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	printsTotal.WithLabelValues(result).Inc()
}

// Transition counts a state transition and updates the active state gauge.
func Transition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
	activeState.WithLabelValues(from).Set(0)
	activeState.WithLabelValues(to).Set(1)
}

// Fault counts a state failure.
func Fault(state string) {
	faultsTotal.WithLabelValues(state).Inc()
}

// Serve serves /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("metrics: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metrics server failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "metrics server shutdown failed")
		}
		return nil
	}
}
