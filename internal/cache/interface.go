// Package cache keeps rendered league standings close to the HTTP layer so that
// ladder views do not hit the database on every request.
package cache

import (
	"context"
	"time"

	"github.com/ladderlink/ladderlink/internal/league"
)

// DefaultTTL bounds how long a cached ladder may be served if an invalidation is lost.
const DefaultTTL = 10 * time.Minute

// StandingsCache stores league standings by league id.
type StandingsCache interface {
	Get(ctx context.Context, leagueID string) ([]league.Standing, bool)
	Set(ctx context.Context, leagueID string, standings []league.Standing)
	Invalidate(ctx context.Context, leagueID string)
	Close() error
}
