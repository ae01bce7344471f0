package metrics

import (
	"database/sql"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Service holds all the Prometheus metrics for the application.
type Service struct {
	MatchesRecorded    prometheus.Counter
	ValidationRejected prometheus.Counter
	RatingUpdates      prometheus.Counter
	RatingUpdateFailed prometheus.Counter
	MatchesProcessed   prometheus.Counter
	ProcessingDuration prometheus.Histogram
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}

// store handles counter-related database operations.
type store struct {
	db *sql.DB
	mu sync.Mutex
}

// Counter keys written to the CounterStore.
const (
	CounterMatchesRecorded    = "matches_recorded"
	CounterValidationRejected = "validation_rejected"
	CounterPlayersRegistered  = "players_registered"
	CounterLeaguesCreated     = "leagues_created"
)
