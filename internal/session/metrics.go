package session

import (
	"errors"

	"adventure-server/internal/conversation"
	"adventure-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_session_transitions_total",
			Help: "Total number of session state transitions.",
		},
		[]string{"state", "outcome"},
	)
	transitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_session_transition_duration_seconds",
			Help:    "Histogram of session state transition durations.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"state"},
	)
	failedTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_session_failed_turns_total",
			Help: "Total number of turns that failed and fell back to an idle state.",
		},
		[]string{"kind"},
	)
	runPollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adventure_session_run_poll_attempts",
			Help:    "Histogram of status checks needed per run poll.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	runPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adventure_session_run_poll_duration_seconds",
			Help:    "Histogram of time spent polling a run.",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 40, 80, 160, 320, 600},
		},
	)
	snapshotsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adventure_session_snapshots_dropped_total",
			Help: "Total number of game state snapshots dropped because the channel was full.",
		},
	)
)

// errorKind maps a failed transition to a low cardinality label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedRequest):
		return "unexpected_request"
	case errors.Is(err, ErrRunStalled):
		return "run_stalled"
	case errors.Is(err, ErrRunFailed):
		return "run_failed"
	case errors.Is(err, ErrUnknownFunction), errors.Is(err, ErrMultipleToolCalls),
		errors.Is(err, ErrNoToolCall), errors.Is(err, ErrInvalidArguments):
		return "protocol"
	case errors.Is(err, ErrStepLimit):
		return "step_limit"
	case errors.Is(err, conversation.ErrBackend):
		return "backend"
	case errors.Is(err, ErrMissingInteraction), errors.Is(err, ErrInteractionActive),
		errors.Is(err, ErrNoPendingOffer), errors.Is(err, models.ErrSceneNotFound),
		errors.Is(err, models.ErrCharacterNotFound):
		return "domain"
	default:
		return "other"
	}
}
