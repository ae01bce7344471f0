package league

import (
	"context"
	"errors"
)

var (
	ErrLeagueNotFound      = errors.New("league not found")
	ErrDuplicateLeagueCode = errors.New("league code already in use")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrAlreadyMember       = errors.New("player is already a member of this league")
	ErrMatchNotFound       = errors.New("match not found")
	ErrAlreadyRated        = errors.New("match has already been rated")
	// ErrStaleRating means a membership changed between reading and writing its rating.
	ErrStaleRating = errors.New("membership rating changed concurrently")
)

// RecentMatchLimit is the number of matches shown per player in the standings.
const RecentMatchLimit = 3

// Store defines the interface for interacting with league data.
type Store interface {
	CreateLeague(ctx context.Context, name, description, code string) (*League, error)
	GetLeague(ctx context.Context, leagueID string) (*League, error)
	GetLeagueByCode(ctx context.Context, code string) (*League, error)
	RegisterPlayer(ctx context.Context, name, email, leagueCode string, initialRating int) (*Membership, error)
	GetMembership(ctx context.Context, playerID, leagueID string) (*Membership, error)
	ApplyRatingUpdate(ctx context.Context, update RatingUpdate) error
	GetRatingHistory(ctx context.Context, membershipID string) ([]RatingHistoryEntry, error)
	CreateMatch(ctx context.Context, match *MatchRecord) error
	GetMatch(ctx context.Context, matchID string) (*MatchRecord, error)
	UpdateProcessingStatus(ctx context.Context, matchID string, status ProcessingStatus) error
	GetMatchesForProcessing(ctx context.Context) ([]*MatchRecord, error)
	GetMatches(ctx context.Context, leagueID string) ([]*MatchRecord, error)
	GetRecentMatches(ctx context.Context, leagueID, playerID string, limit int) ([]MatchRecord, error)
	GetStandings(ctx context.Context, leagueID string) ([]Standing, error)
}
