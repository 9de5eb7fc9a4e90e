package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksTotal — завершённые tasks по статусу.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loanworker_tasks_total",
		Help: "Finished loan tasks by final status",
	}, []string{"status"})

	// StageDuration — длительность стадий pipeline.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loanworker_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage", "outcome"})

	// Recommendations — выданные рекомендации по виду.
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loanworker_recommendations_total",
		Help: "Recommendations produced by kind",
	}, []string{"kind"})

	// EmailsTotal — результаты отправки писем.
	EmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loanworker_emails_total",
		Help: "Recommendation emails by outcome",
	}, []string{"outcome"})

	// HTTPRequests — запросы к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loanworker_api_http_requests_total",
		Help: "HTTP requests handled by loanworker-api",
	}, []string{"method", "status"})

	// StaleTasks — tasks, помеченные reaper'ом как FAILED.
	StaleTasks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loanworker_stale_tasks_total",
		Help: "RUNNING tasks marked FAILED by the reaper",
	})
)
