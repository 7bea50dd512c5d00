// Package metrics holds the Prometheus collectors for events and reports.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts ranking runs by caller kind ("user", "session" or "anonymous").
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_recommendations_total",
			Help: "Total number of recommendation rankings served",
		},
		[]string{"identity"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "civic_ranking_duration_seconds",
			Help:    "Time spent scoring and draining candidates",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_event_cache_hits_total",
			Help: "Event cache hits by cache key",
		},
		[]string{"key"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_event_cache_misses_total",
			Help: "Event cache misses by cache key",
		},
		[]string{"key"},
	)

	SearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civic_searches_total",
			Help: "Total number of event searches",
		},
	)

	// ReportsTotal counts submitted issue reports by triage priority.
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_reports_submitted_total",
			Help: "Issue reports submitted by priority",
		},
		[]string{"priority"},
	)

	// TrackingJobsTotal counts processed tracking jobs by type and outcome.
	TrackingJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_tracking_jobs_total",
			Help: "Tracking jobs processed by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// RecordRanking records one recommendation run.
func RecordRanking(identity string, d time.Duration) {
	RecommendationsTotal.WithLabelValues(identity).Inc()
	RankingDuration.Observe(d.Seconds())
}

func RecordCacheHit(key string)  { CacheHitsTotal.WithLabelValues(key).Inc() }
func RecordCacheMiss(key string) { CacheMissesTotal.WithLabelValues(key).Inc() }

func RecordSearch() { SearchesTotal.Inc() }

func RecordReport(priority int) { ReportsTotal.WithLabelValues(strconv.Itoa(priority)).Inc() }

// RecordTrackingJob records a processed job. ok is false when the attempt failed.
func RecordTrackingJob(jobType string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	TrackingJobsTotal.WithLabelValues(jobType, outcome).Inc()
}
