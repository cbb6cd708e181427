package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trigger/fire metrics

	FireLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "fire_latency_seconds",
		Help:      "Time from a trigger's scheduled instant to the fire handler starting.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	RunExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "run_execution_duration_seconds",
		Help:      "Duration of a Run's HTTP execution, including retries.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	RunsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "runs_in_flight",
		Help:      "Number of Runs currently being executed.",
	})

	RunsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "runs_completed_total",
		Help:      "Total Runs finished, by outcome.",
	}, []string{"outcome"})

	FiresSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "fires_skipped_total",
		Help:      "Total trigger fires skipped due to an overlapping in-flight fire or duplicate idempotency key.",
	}, []string{"reason"})

	// Sweeper metrics

	SweepExpiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "sweep_expired_total",
		Help:      "Total schedules expired by the window sweeper.",
	}, []string{"reason"})

	SweepCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "sweep_cycle_duration_seconds",
		Help:      "Time taken for one window sweep cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Process lifecycle

	ProcessStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "process_start_time_seconds",
		Help:      "Unix timestamp when the process started.",
	})

	ProcessShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "process_shutdowns_total",
		Help:      "Number of times the process has shut down.",
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		FireLatency,
		RunExecutionDuration,
		RunsInFlight,
		RunsCompletedTotal,
		FiresSkippedTotal,
		SweepExpiredTotal,
		SweepCycleDuration,
		ProcessStartTime,
		ProcessShutdownsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
