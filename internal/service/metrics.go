package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adventure_games_started_total",
		Help: "Games started, by whether a saved game was resumed.",
	}, []string{"mode"})

	failedTurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adventure_service_failed_turns_total",
		Help: "Turns that failed and were answered with the recovered state.",
	})

	snapshotPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adventure_snapshot_publish_failures_total",
		Help: "Snapshot deliveries that a publisher rejected.",
	})
)
