package processor

import (
	"context"

	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/rating"
)

// Store defines the database operations required by the processor.
type Store interface {
	GetLeague(ctx context.Context, leagueID string) (*league.League, error)
	GetMembership(ctx context.Context, playerID, leagueID string) (*league.Membership, error)
	GetRatingHistory(ctx context.Context, membershipID string) ([]league.RatingHistoryEntry, error)
	GetMatch(ctx context.Context, matchID string) (*league.MatchRecord, error)
	UpdateProcessingStatus(ctx context.Context, matchID string, status league.ProcessingStatus) error
	GetMatchesForProcessing(ctx context.Context) ([]*league.MatchRecord, error)
}

// Rater saves a decided match together with the players' new ratings.
type Rater interface {
	RateMatch(ctx context.Context, match *league.MatchRecord) (*rating.Result, error)
}

// Notifier defines the notification operations required by the processor.
type Notifier interface {
	notifier.Notifier
}
