package league

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ladderlink/ladderlink/internal/score"
)

const matchColumns = `id, league_id, player1_id, player2_id,
	p1_set1, p1_set2, p1_set3, p2_set1, p2_set2, p2_set3,
	set1_tiebreak_loser_points, set2_tiebreak_loser_points, set3_tiebreak_loser_points,
	winner, winner_id, loser_id, played_at, processing_status`

const membershipColumns = `m.id, m.player_id, p.name, m.league_id, m.rating_value, m.wins, m.losses, m.joined_at`

// New creates a new league Store.
func New(db *sql.DB) Store {
	return &store{
		db:  db,
		now: time.Now,
	}
}

// CreateLeague creates a ladder identified by a unique invite code.
func (s *store) CreateLeague(ctx context.Context, name, description, code string) (*League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.TrimSpace(code)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM leagues WHERE code = ?)", code).Scan(&exists); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check league code: %w", err)
	}
	if exists {
		tx.Rollback()
		return nil, ErrDuplicateLeagueCode
	}

	l := &League{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Code:        code,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO leagues (id, name, description, code, created_at) VALUES (?, ?, ?, ?, ?)",
		l.ID, l.Name, l.Description, l.Code, l.CreatedAt.Unix(),
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info("Created league", "leagueID", l.ID, "name", l.Name, "code", l.Code)
	return l, nil
}

func (s *store) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanLeague(s.db.QueryRowContext(ctx,
		"SELECT id, name, description, code, created_at FROM leagues WHERE id = ?", leagueID))
}

func (s *store) GetLeagueByCode(ctx context.Context, code string) (*League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanLeague(s.db.QueryRowContext(ctx,
		"SELECT id, name, description, code, created_at FROM leagues WHERE code = ?", strings.TrimSpace(code)))
}

func (s *store) scanLeague(row *sql.Row) (*League, error) {
	var l League
	var createdAt int64
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Code, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &l, nil
}

// RegisterPlayer adds a player to the league with the given invite code. Players are
// identified by email, so a player joining a second league keeps the same id.
func (s *store) RegisterPlayer(ctx context.Context, name, email, leagueCode string, initialRating int) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	now := s.now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var leagueID string
	err = tx.QueryRowContext(ctx, "SELECT id FROM leagues WHERE code = ?", strings.TrimSpace(leagueCode)).Scan(&leagueID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeagueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up league: %w", err)
	}

	var playerID, playerName string
	err = tx.QueryRowContext(ctx, "SELECT id, name FROM players WHERE email = ?", email).Scan(&playerID, &playerName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		playerID, playerName = uuid.NewString(), name
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO players (id, name, email, created_at) VALUES (?, ?, ?, ?)",
			playerID, playerName, email, now.Unix(),
		); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}
		log.Info("Added new player", "playerID", playerID, "name", playerName)
	case err != nil:
		return nil, fmt.Errorf("failed to look up player: %w", err)
	}

	var member bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM memberships WHERE player_id = ? AND league_id = ?)", playerID, leagueID,
	).Scan(&member); err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, ErrAlreadyMember
	}

	m := &Membership{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: playerName,
		LeagueID:   leagueID,
		Rating:     initialRating,
		JoinedAt:   now,
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO memberships (id, player_id, league_id, rating_value, wins, losses, joined_at) VALUES (?, ?, ?, ?, 0, 0, ?)",
		m.ID, m.PlayerID, m.LeagueID, m.Rating, m.JoinedAt.Unix(),
	); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info("Registered player in league", "playerID", playerID, "leagueID", leagueID, "rating", m.Rating)
	return m, nil
}

// GetMembership returns the membership of playerID in leagueID or ErrMembershipNotFound.
func (s *store) GetMembership(ctx context.Context, playerID, leagueID string) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		JOIN players p ON p.id = m.player_id
		WHERE m.player_id = ? AND m.league_id = ?`, playerID, leagueID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("No membership found", "playerID", playerID, "leagueID", leagueID)
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return m, nil
}

func scanMembership(scanner interface{ Scan(...any) error }) (*Membership, error) {
	var m Membership
	var joinedAt int64
	if err := scanner.Scan(&m.ID, &m.PlayerID, &m.PlayerName, &m.LeagueID, &m.Rating, &m.Wins, &m.Losses, &joinedAt); err != nil {
		return nil, err
	}
	m.JoinedAt = time.Unix(joinedAt, 0).UTC()
	return &m, nil
}

// ApplyRatingUpdate writes the winner's and loser's new ratings, their win/loss
// counters, the rating history and the match (inserted when update.Match is set,
// otherwise moved from NEW to RATED) in a single transaction.
// Each membership is only updated if it still holds the rating the update was
// computed from; otherwise nothing is written and ErrStaleRating is returned.
func (s *store) ApplyRatingUpdate(ctx context.Context, update RatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now().UTC().Unix()
	var saved MatchRecord
	if update.Match != nil {
		// The match only exists once its ratings are applied.
		saved = *update.Match
		saved.LeagueID = update.LeagueID
		if err := s.insertMatch(ctx, tx, &saved, StatusRated); err != nil {
			return err
		}
		update.MatchID = saved.ID
	} else if update.MatchID != "" {
		res, err := tx.ExecContext(ctx,
			"UPDATE matches SET processing_status = ? WHERE id = ? AND processing_status = ?",
			StatusRated, update.MatchID, StatusNew,
		)
		if err != nil {
			return fmt.Errorf("failed to update match status: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM matches WHERE id = ?)", update.MatchID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrMatchNotFound
			}
			return ErrAlreadyRated
		}
	}

	apply := func(c RatingChange, wins, losses int) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE memberships
			SET rating_value = ?, wins = wins + ?, losses = losses + ?
			WHERE id = ? AND league_id = ? AND rating_value = ?`,
			c.After, wins, losses, c.MembershipID, update.LeagueID, c.Before,
		)
		if err != nil {
			return fmt.Errorf("failed to update membership %s: %w", c.MembershipID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				"SELECT EXISTS(SELECT 1 FROM memberships WHERE id = ? AND league_id = ?)", c.MembershipID, update.LeagueID,
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrMembershipNotFound
			}
			return ErrStaleRating
		}

		if update.MatchID == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rating_history (membership_id, match_id, rating_before, rating_after, rating_change, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.MembershipID, update.MatchID, c.Before, c.After, c.Delta(), now,
		)
		if err != nil {
			return fmt.Errorf("failed to record rating history: %w", err)
		}
		return nil
	}

	if err := apply(update.Winner, 1, 0); err != nil {
		return err
	}
	if err := apply(update.Loser, 0, 1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating update: %w", err)
	}
	if update.Match != nil {
		*update.Match = saved
	}

	log.Info("Applied rating update",
		"matchID", update.MatchID,
		"winner", update.Winner.PlayerID, "winner_rating", update.Winner.After,
		"loser", update.Loser.PlayerID, "loser_rating", update.Loser.After,
	)
	return nil
}

func (s *store) GetRatingHistory(ctx context.Context, membershipID string) ([]RatingHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, rating_before, rating_after, rating_change, created_at
		FROM rating_history
		WHERE membership_id = ?
		ORDER BY id`, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []RatingHistoryEntry
	for rows.Next() {
		var e RatingHistoryEntry
		var createdAt int64
		if err := rows.Scan(&e.MatchID, &e.Before, &e.After, &e.Change, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		history = append(history, e)
	}
	return history, rows.Err()
}

// CreateMatch stores a new match record with status NEW. An empty ID is replaced
// by a generated one and a zero PlayedAt by the current time.
func (s *store) CreateMatch(ctx context.Context, match *MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insertMatch(ctx, s.db, match, StatusNew); err != nil {
		return err
	}
	log.Info("Created match record", "matchID", match.ID, "leagueID", match.LeagueID, "winner", match.WinnerID)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertMatch fills in the id and play time when missing and writes the match with status.
func (s *store) insertMatch(ctx context.Context, db execer, match *MatchRecord, status ProcessingStatus) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.PlayedAt.IsZero() {
		match.PlayedAt = s.now().UTC()
	}
	match.PlayedAt = match.PlayedAt.UTC().Truncate(time.Second)

	sets := match.Sets
	_, err := db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.ID, match.LeagueID, match.Player1ID, match.Player2ID,
		sets[0].Player1, sets[1].Player1, sets[2].Player1,
		sets[0].Player2, sets[1].Player2, sets[2].Player2,
		nullInt(sets[0].TiebreakerLoserPoints), nullInt(sets[1].TiebreakerLoserPoints), nullInt(sets[2].TiebreakerLoserPoints),
		string(match.Winner), match.WinnerID, match.LoserID, match.PlayedAt.Unix(), status,
	)
	if err != nil {
		return fmt.Errorf("failed to create match record: %w", err)
	}
	match.ProcessingStatus = status
	return nil
}

func (s *store) GetMatch(ctx context.Context, matchID string) (*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRowContext(ctx, "SELECT "+matchColumns+" FROM matches WHERE id = ?", matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

// UpdateProcessingStatus transitions a match to a new state.
func (s *store) UpdateProcessingStatus(ctx context.Context, matchID string, status ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE matches SET processing_status = ? WHERE id = ?", status, matchID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// GetMatchesForProcessing retrieves all matches that are not yet in a completed state.
func (s *store) GetMatchesForProcessing(ctx context.Context) ([]*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryMatches(ctx,
		"SELECT "+matchColumns+" FROM matches WHERE processing_status != ? ORDER BY played_at", StatusCompleted)
}

// GetMatches retrieves all matches of a league, newest first.
func (s *store) GetMatches(ctx context.Context, leagueID string) ([]*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryMatches(ctx,
		"SELECT "+matchColumns+" FROM matches WHERE league_id = ? ORDER BY played_at DESC, id", leagueID)
}

func (s *store) GetRecentMatches(ctx context.Context, leagueID, playerID string, limit int) ([]MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentMatches(ctx, leagueID, playerID, limit)
}

func (s *store) recentMatches(ctx context.Context, leagueID, playerID string, limit int) ([]MatchRecord, error) {
	matches, err := s.queryMatches(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE league_id = ? AND (player1_id = ? OR player2_id = ?)
		ORDER BY played_at DESC, id
		LIMIT ?`, leagueID, playerID, playerID, limit)
	if err != nil {
		return nil, err
	}
	recent := make([]MatchRecord, 0, len(matches))
	for _, m := range matches {
		recent = append(recent, *m)
	}
	return recent, nil
}

func (s *store) queryMatches(ctx context.Context, query string, args ...any) ([]*MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("Failed to query matches", "error", err)
		return nil, err
	}
	defer rows.Close()

	var matches []*MatchRecord
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// scanMatch is a helper function to scan a single match row.
func scanMatch(scanner interface{ Scan(...any) error }) (*MatchRecord, error) {
	var m MatchRecord
	var winner string
	var playedAt int64
	var tb [score.SetCount]sql.NullInt64

	err := scanner.Scan(
		&m.ID, &m.LeagueID, &m.Player1ID, &m.Player2ID,
		&m.Sets[0].Player1, &m.Sets[1].Player1, &m.Sets[2].Player1,
		&m.Sets[0].Player2, &m.Sets[1].Player2, &m.Sets[2].Player2,
		&tb[0], &tb[1], &tb[2],
		&winner, &m.WinnerID, &m.LoserID, &playedAt, &m.ProcessingStatus,
	)
	if err != nil {
		return nil, err
	}
	for i := range tb {
		if tb[i].Valid {
			v := int(tb[i].Int64)
			m.Sets[i].TiebreakerLoserPoints = &v
		}
	}
	m.Winner = score.Side(winner)
	m.PlayedAt = time.Unix(playedAt, 0).UTC()
	return &m, nil
}

// GetStandings returns the league's ladder ordered by rating, each member with
// their most recent matches.
func (s *store) GetStandings(ctx context.Context, leagueID string) ([]Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+membershipColumns+`
		FROM memberships m
		JOIN players p ON p.id = m.player_id
		WHERE m.league_id = ?
		ORDER BY m.rating_value DESC, m.wins DESC, p.name ASC`, leagueID)
	if err != nil {
		log.Error("Failed to query standings", "error", err, "leagueID", leagueID)
		return nil, err
	}
	var standings []Standing
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		standings = append(standings, Standing{Position: len(standings) + 1, Membership: *m})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The rows must be closed first: a local database has a single connection.
	for i := range standings {
		recent, err := s.recentMatches(ctx, leagueID, standings[i].Membership.PlayerID, RecentMatchLimit)
		if err != nil {
			return nil, err
		}
		standings[i].RecentMatches = recent
	}
	return standings, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
