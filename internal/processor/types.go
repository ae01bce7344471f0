package processor

import (
	"errors"
	"time"

	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/pubsub"
	"github.com/ladderlink/ladderlink/internal/rating"
	"github.com/ladderlink/ladderlink/internal/score"
)

// ErrSamePlayer is returned when a player reports a match against themselves.
var ErrSamePlayer = errors.New("you cannot record a match against yourself")

// Processor handles the business logic of recording and processing matches.
type Processor struct {
	store    Store
	rater    Rater
	cache    cache.StandingsCache
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
	counters metrics.CounterStore
}

// Submission is a score sheet submitted by the reporting player (player 1).
type Submission struct {
	LeagueID   string                         `json:"league_id"`
	ReporterID string                         `json:"reporter_id"`
	OpponentID string                         `json:"opponent_id"`
	Sets       [score.SetCount]score.SetScore `json:"sets"`
	PlayedAt   time.Time                      `json:"played_at"`
}

// Recorded is the outcome of a successful submission.
type Recorded struct {
	Match  *league.MatchRecord `json:"match"`
	Rating *rating.Result      `json:"rating"`
}
