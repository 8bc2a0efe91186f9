package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_runs_total",
			Help: "Pipeline runs by terminal state",
		},
		[]string{"outcome"},
	)

	StageIdeas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_stage_ideas_total",
			Help: "Ideas processed per pipeline stage by result",
		},
		[]string{"stage", "result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
		[]string{"stage"},
	)

	SourceRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_source_records_total",
			Help: "Raw trend records returned per source",
		},
		[]string{"source"},
	)

	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_source_failures_total",
			Help: "Trend sources that were unavailable during a scan",
		},
		[]string{"source"},
	)

	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_verdicts_total",
			Help: "Validated ideas by verdict",
		},
		[]string{"verdict"},
	)
)
