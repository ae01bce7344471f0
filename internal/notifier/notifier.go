package notifier

import (
	"context"

	"github.com/ladderlink/ladderlink/internal/league"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For rated matches
	SendResultNotification(ctx context.Context, result ResultNotification, dryRun bool) error
	// For slash commands and scheduled posts
	SendStandings(ctx context.Context, l *league.League, standings []league.Standing, dryRun bool) error

	// For formatting responses for slash commands
	FormatStandingsResponse(l *league.League, standings []league.Standing) (any, error)
	FormatLeagueNotFoundResponse(code string) (any, error)
}

// ResultNotification describes a rated match.
type ResultNotification struct {
	League *league.League
	Match  *league.MatchRecord
	Winner PlayerResult
	Loser  PlayerResult
}

// PlayerResult is one player's side of a rated match.
type PlayerResult struct {
	Name   string
	Rating int
	Change int
}
