package league

import (
	"database/sql"
	"sync"
	"time"

	"github.com/ladderlink/ladderlink/internal/score"
)

// store handles all database operations for leagues, memberships and matches.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// ProcessingStatus tracks how far a recorded match has travelled through the pipeline.
type ProcessingStatus string

const (
	StatusNew            ProcessingStatus = "NEW"
	StatusRated          ProcessingStatus = "RATED"
	StatusResultNotified ProcessingStatus = "RESULT_NOTIFIED"
	StatusCompleted      ProcessingStatus = "COMPLETED"
)

// League is a ladder that players join with its invite code.
type League struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Player is a person who can be a member of several leagues.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership is a player's participation in one league.
type Membership struct {
	ID         string    `json:"id" msgpack:"id"`
	PlayerID   string    `json:"player_id" msgpack:"player_id"`
	PlayerName string    `json:"player_name" msgpack:"player_name"`
	LeagueID   string    `json:"league_id" msgpack:"league_id"`
	Rating     int       `json:"rating" msgpack:"rating"`
	Wins       int       `json:"wins" msgpack:"wins"`
	Losses     int       `json:"losses" msgpack:"losses"`
	JoinedAt   time.Time `json:"joined_at" msgpack:"joined_at"`
}

// MatchesPlayed is the number of matches the member has played in the league.
func (m Membership) MatchesPlayed() int {
	return m.Wins + m.Losses
}

// MatchRecord is a submitted match result. Player1 is the reporting player.
type MatchRecord struct {
	ID               string                         `json:"id" msgpack:"id"`
	LeagueID         string                         `json:"league_id" msgpack:"league_id"`
	Player1ID        string                         `json:"player1_id" msgpack:"player1_id"`
	Player2ID        string                         `json:"player2_id" msgpack:"player2_id"`
	Sets             [score.SetCount]score.SetScore `json:"sets" msgpack:"sets"`
	Winner           score.Side                     `json:"winner" msgpack:"winner"`
	WinnerID         string                         `json:"winner_id" msgpack:"winner_id"`
	LoserID          string                         `json:"loser_id" msgpack:"loser_id"`
	PlayedAt         time.Time                      `json:"played_at" msgpack:"played_at"`
	ProcessingStatus ProcessingStatus               `json:"processing_status" msgpack:"processing_status"`
}

// RatingChange is the rating movement of one membership caused by one match.
type RatingChange struct {
	MembershipID string `json:"membership_id"`
	PlayerID     string `json:"player_id"`
	Before       int    `json:"before"`
	After        int    `json:"after"`
}

// Delta is the signed rating change.
func (c RatingChange) Delta() int {
	return c.After - c.Before
}

// RatingUpdate is the full set of writes produced by rating one match.
// When Match is set it is inserted as RATED in the same transaction and MatchID is
// taken from it; otherwise MatchID names an existing NEW match, or is empty.
type RatingUpdate struct {
	LeagueID string
	MatchID  string
	Match    *MatchRecord
	Winner   RatingChange
	Loser    RatingChange
}

// RatingHistoryEntry is a persisted RatingChange.
type RatingHistoryEntry struct {
	MatchID   string    `json:"match_id"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Change    int       `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}

// Standing is one row of the ladder.
type Standing struct {
	Position      int           `json:"position" msgpack:"position"`
	Membership    Membership    `json:"membership" msgpack:"membership"`
	RecentMatches []MatchRecord `json:"recent_matches" msgpack:"recent_matches"`
}
