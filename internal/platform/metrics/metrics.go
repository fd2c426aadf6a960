package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtrack_page_events_total",
		Help: "Page events accepted by the tracker, by type.",
	}, []string{"type"})

	WatchedSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtrack_watched_seconds_total",
		Help: "Distinct playback seconds counted across all videos.",
	})

	VideoReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtrack_video_reports_total",
		Help: "Finalized video reports, by watch status.",
	}, []string{"status"})

	InactivityPeriods = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtrack_inactivity_periods_total",
		Help: "Closed inactivity periods, by cause.",
	}, []string{"cause"})

	SuppressedReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtrack_suppressed_reports_total",
		Help: "Reports dropped because no session id was set.",
	}, []string{"kind"})

	SessionSplits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtrack_session_splits_total",
		Help: "Session split directives applied.",
	})

	CollectorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtrack_collector_requests_total",
		Help: "Collector requests, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	CollectorBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchtrack_collector_breaker_state",
		Help: "Collector circuit breaker state (0 closed, 1 half-open, 2 open).",
	})
)
