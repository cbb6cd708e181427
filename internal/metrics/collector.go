package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// APICollector is a dynamic prometheus.Collector that queries the
// store live at scrape time, rather than accumulating in-process
// counters. It exposes the api_scheduler_* series described by the
// control API's /metrics/prometheus endpoint.
type APICollector struct {
	fetch  func(ctx context.Context) (*Snapshot, error)
	logger *slog.Logger

	targetsTotal   *prometheus.Desc
	schedulesTotal *prometheus.Desc
	runsTotal      *prometheus.Desc
	runsLastHour   *prometheus.Desc
	latencyMS      *prometheus.Desc
	errorsTotal    *prometheus.Desc
}

// Snapshot is the subset of usecase.Aggregate the collector needs,
// decoupled so this package doesn't import usecase directly.
type Snapshot struct {
	TargetsTotal         int
	SchedulesByStatus    map[string]int
	RunsByStatus         map[string]int
	RunsLastHourByStatus map[string]int
	AverageLatencyMS24h  float64
	ErrorsByKind24h      map[string]int
}

func NewAPICollector(logger *slog.Logger, fetch func(ctx context.Context) (*Snapshot, error)) *APICollector {
	return &APICollector{
		fetch:  fetch,
		logger: logger.With("component", "api_collector"),

		targetsTotal: prometheus.NewDesc(
			"api_scheduler_targets_total", "Total number of configured Targets.", nil, nil),
		schedulesTotal: prometheus.NewDesc(
			"api_scheduler_schedules_total", "Total Schedules by status.", []string{"status"}, nil),
		runsTotal: prometheus.NewDesc(
			"api_scheduler_runs_total", "Total Runs by status.", []string{"status"}, nil),
		runsLastHour: prometheus.NewDesc(
			"api_scheduler_runs_last_hour", "Runs scheduled in the last hour, by status.", []string{"status"}, nil),
		latencyMS: prometheus.NewDesc(
			"api_scheduler_latency_ms", "Average Attempt latency in milliseconds over the last 24h.", nil, nil),
		errorsTotal: prometheus.NewDesc(
			"api_scheduler_errors_total", "Run final error kinds over the last 24h.", []string{"type"}, nil),
	}
}

func (c *APICollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.targetsTotal
	ch <- c.schedulesTotal
	ch <- c.runsTotal
	ch <- c.runsLastHour
	ch <- c.latencyMS
	ch <- c.errorsTotal
}

func (c *APICollector) Collect(ch chan<- prometheus.Metric) {
	snap, err := c.fetch(context.Background())
	if err != nil {
		c.logger.Error("collect snapshot failed", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.targetsTotal, prometheus.GaugeValue, float64(snap.TargetsTotal))

	for status, n := range snap.SchedulesByStatus {
		ch <- prometheus.MustNewConstMetric(c.schedulesTotal, prometheus.GaugeValue, float64(n), status)
	}
	for status, n := range snap.RunsByStatus {
		ch <- prometheus.MustNewConstMetric(c.runsTotal, prometheus.GaugeValue, float64(n), status)
	}
	for status, n := range snap.RunsLastHourByStatus {
		ch <- prometheus.MustNewConstMetric(c.runsLastHour, prometheus.GaugeValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(c.latencyMS, prometheus.GaugeValue, snap.AverageLatencyMS24h)
	for kind, n := range snap.ErrorsByKind24h {
		ch <- prometheus.MustNewConstMetric(c.errorsTotal, prometheus.GaugeValue, float64(n), kind)
	}
}
