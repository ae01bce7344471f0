package league_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ladderlink/ladderlink/internal/database"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (league.Store, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	return league.New(db), db, teardown
}

type fixture struct {
	league *league.League
	alice  *league.Membership
	bob    *league.Membership
}

func seedLeague(t *testing.T, store league.Store) fixture {
	t.Helper()
	ctx := context.Background()

	l, err := store.CreateLeague(ctx, "Tuesday Ladder", "Club night", "TUE")
	require.NoError(t, err)
	alice, err := store.RegisterPlayer(ctx, "Alice", "alice@example.com", "TUE", 1400)
	require.NoError(t, err)
	bob, err := store.RegisterPlayer(ctx, "Bob", "bob@example.com", "TUE", 1400)
	require.NoError(t, err)
	return fixture{league: l, alice: alice, bob: bob}
}

func newMatch(f fixture, playedAt time.Time) *league.MatchRecord {
	return &league.MatchRecord{
		LeagueID:  f.league.ID,
		Player1ID: f.alice.PlayerID,
		Player2ID: f.bob.PlayerID,
		Sets: [score.SetCount]score.SetScore{
			{Player1: 6, Player2: 3},
			{Player1: 6, Player2: 4},
		},
		Winner:   score.Player1,
		WinnerID: f.alice.PlayerID,
		LoserID:  f.bob.PlayerID,
		PlayedAt: playedAt,
	}
}

func TestCreateLeague(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	l, err := store.CreateLeague(ctx, "Tuesday Ladder", "Club night", "TUE")
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)

	byCode, err := store.GetLeagueByCode(ctx, "TUE")
	require.NoError(t, err)
	assert.Equal(t, l.ID, byCode.ID)
	assert.Equal(t, "Club night", byCode.Description)

	byID, err := store.GetLeague(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "TUE", byID.Code)

	_, err = store.CreateLeague(ctx, "Another", "", "TUE")
	assert.ErrorIs(t, err, league.ErrDuplicateLeagueCode)

	_, err = store.GetLeagueByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, league.ErrLeagueNotFound)
}

func TestRegisterPlayer(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	assert.Equal(t, 1400, f.alice.Rating)
	assert.Equal(t, f.league.ID, f.alice.LeagueID)
	assert.NotEqual(t, f.alice.PlayerID, f.bob.PlayerID)

	t.Run("already a member", func(t *testing.T) {
		_, err := store.RegisterPlayer(ctx, "Alice", "ALICE@example.com ", "TUE", 1400)
		assert.ErrorIs(t, err, league.ErrAlreadyMember)
	})

	t.Run("unknown league", func(t *testing.T) {
		_, err := store.RegisterPlayer(ctx, "Carol", "carol@example.com", "XYZ", 1400)
		assert.ErrorIs(t, err, league.ErrLeagueNotFound)
	})

	t.Run("same player joins a second league", func(t *testing.T) {
		_, err := store.CreateLeague(ctx, "Thursday Ladder", "", "THU")
		require.NoError(t, err)
		m, err := store.RegisterPlayer(ctx, "Alice B.", "alice@example.com", "THU", 1400)
		require.NoError(t, err)
		assert.Equal(t, f.alice.PlayerID, m.PlayerID)
		assert.Equal(t, "Alice", m.PlayerName, "an existing player keeps their name")
		assert.NotEqual(t, f.alice.ID, m.ID)
	})
}

func TestGetMembership(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	m, err := store.GetMembership(ctx, f.bob.PlayerID, f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, m.ID)
	assert.Equal(t, "Bob", m.PlayerName)
	assert.Equal(t, 0, m.MatchesPlayed())

	_, err = store.GetMembership(ctx, "ghost", f.league.ID)
	assert.ErrorIs(t, err, league.ErrMembershipNotFound)
}

func TestCreateAndGetMatch(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	points := 4
	match := newMatch(f, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC))
	match.Sets[1] = score.SetScore{Player1: 7, Player2: 6, TiebreakerLoserPoints: &points}
	require.NoError(t, store.CreateMatch(ctx, match))
	require.NotEmpty(t, match.ID)

	got, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatusNew, got.ProcessingStatus)
	assert.Equal(t, score.Player1, got.Winner)
	assert.Equal(t, f.alice.PlayerID, got.WinnerID)
	assert.Equal(t, match.PlayedAt, got.PlayedAt)
	assert.Nil(t, got.Sets[0].TiebreakerLoserPoints)
	require.NotNil(t, got.Sets[1].TiebreakerLoserPoints)
	assert.Equal(t, 4, *got.Sets[1].TiebreakerLoserPoints)
	assert.Equal(t, score.SetScore{}, got.Sets[2])

	_, err = store.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
}

func TestApplyRatingUpdate(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	match := newMatch(f, time.Now())
	require.NoError(t, store.CreateMatch(ctx, match))

	update := league.RatingUpdate{
		LeagueID: f.league.ID,
		MatchID:  match.ID,
		Winner:   league.RatingChange{MembershipID: f.alice.ID, PlayerID: f.alice.PlayerID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: f.bob.ID, PlayerID: f.bob.PlayerID, Before: 1400, After: 1384},
	}
	require.NoError(t, store.ApplyRatingUpdate(ctx, update))

	alice, err := store.GetMembership(ctx, f.alice.PlayerID, f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1416, alice.Rating)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 0, alice.Losses)

	bob, err := store.GetMembership(ctx, f.bob.PlayerID, f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1384, bob.Rating)
	assert.Equal(t, 1, bob.Losses)

	stored, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatusRated, stored.ProcessingStatus)

	history, err := store.GetRatingHistory(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, match.ID, history[0].MatchID)
	assert.Equal(t, -16, history[0].Change)

	t.Run("rating the same match twice is rejected", func(t *testing.T) {
		err := store.ApplyRatingUpdate(ctx, update)
		assert.ErrorIs(t, err, league.ErrAlreadyRated)
	})
}

func TestApplyRatingUpdate_StaleRatingWritesNothing(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	match := newMatch(f, time.Now())
	require.NoError(t, store.CreateMatch(ctx, match))

	err := store.ApplyRatingUpdate(ctx, league.RatingUpdate{
		LeagueID: f.league.ID,
		MatchID:  match.ID,
		Winner:   league.RatingChange{MembershipID: f.alice.ID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: f.bob.ID, Before: 1390, After: 1374},
	})
	assert.ErrorIs(t, err, league.ErrStaleRating)

	alice, err := store.GetMembership(ctx, f.alice.PlayerID, f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1400, alice.Rating, "the winner's update must be rolled back")
	assert.Equal(t, 0, alice.Wins)

	stored, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatusNew, stored.ProcessingStatus)

	history, err := store.GetRatingHistory(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestApplyRatingUpdate_UnknownMembership(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	f := seedLeague(t, store)

	err := store.ApplyRatingUpdate(context.Background(), league.RatingUpdate{
		LeagueID: f.league.ID,
		Winner:   league.RatingChange{MembershipID: f.alice.ID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: "ghost", Before: 1400, After: 1384},
	})
	assert.ErrorIs(t, err, league.ErrMembershipNotFound)
}

func TestApplyRatingUpdate_SavesNewMatch(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	match := newMatch(f, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, store.ApplyRatingUpdate(ctx, league.RatingUpdate{
		LeagueID: f.league.ID,
		Match:    match,
		Winner:   league.RatingChange{MembershipID: f.alice.ID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: f.bob.ID, Before: 1400, After: 1384},
	}))
	require.NotEmpty(t, match.ID)
	assert.Equal(t, league.StatusRated, match.ProcessingStatus)

	stored, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.StatusRated, stored.ProcessingStatus)
	assert.Equal(t, f.alice.PlayerID, stored.WinnerID)

	history, err := store.GetRatingHistory(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, match.ID, history[0].MatchID)
}

func TestApplyRatingUpdate_StaleRatingDoesNotSaveMatch(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	match := newMatch(f, time.Now())
	err := store.ApplyRatingUpdate(ctx, league.RatingUpdate{
		LeagueID: f.league.ID,
		Match:    match,
		Winner:   league.RatingChange{MembershipID: f.alice.ID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: f.bob.ID, Before: 1390, After: 1374},
	})
	assert.ErrorIs(t, err, league.ErrStaleRating)
	assert.Empty(t, match.ID)

	matches, err := store.GetMatches(ctx, f.league.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)

	alice, err := store.GetMembership(ctx, f.alice.PlayerID, f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, alice.Wins+alice.Losses)
}

func TestGetMatches_UnreadableRowFails(t *testing.T) {
	store, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	require.NoError(t, store.CreateMatch(ctx, newMatch(f, time.Now())))
	_, err := db.ExecContext(ctx, `
		INSERT INTO matches (id, league_id, player1_id, player2_id, p1_set1, winner, winner_id, loser_id, played_at)
		VALUES ('corrupt', ?, ?, ?, 'six', 'player1', ?, ?, ?)`,
		f.league.ID, f.alice.PlayerID, f.bob.PlayerID, f.alice.PlayerID, f.bob.PlayerID, time.Now().Unix(),
	)
	require.NoError(t, err)

	_, err = store.GetMatches(ctx, f.league.ID)
	assert.Error(t, err, "a row that cannot be read must not be skipped")

	_, err = store.GetStandings(ctx, f.league.ID)
	assert.Error(t, err)
}

func TestProcessingStatus(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)

	first := newMatch(f, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	second := newMatch(f, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.CreateMatch(ctx, first))
	require.NoError(t, store.CreateMatch(ctx, second))

	require.NoError(t, store.UpdateProcessingStatus(ctx, first.ID, league.StatusCompleted))

	pending, err := store.GetMatchesForProcessing(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	err = store.UpdateProcessingStatus(ctx, "missing", league.StatusCompleted)
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
}

func TestGetStandings(t *testing.T) {
	store, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	f := seedLeague(t, store)
	carol, err := store.RegisterPlayer(ctx, "Carol", "carol@example.com", "TUE", 1400)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 4; i++ {
		m := newMatch(f, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.CreateMatch(ctx, m))
		ids = append(ids, m.ID)
	}
	require.NoError(t, store.ApplyRatingUpdate(ctx, league.RatingUpdate{
		LeagueID: f.league.ID,
		MatchID:  ids[0],
		Winner:   league.RatingChange{MembershipID: f.alice.ID, Before: 1400, After: 1416},
		Loser:    league.RatingChange{MembershipID: f.bob.ID, Before: 1400, After: 1384},
	}))

	standings, err := store.GetStandings(ctx, f.league.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	assert.Equal(t, 1, standings[0].Position)
	assert.Equal(t, "Alice", standings[0].Membership.PlayerName)
	assert.Equal(t, carol.ID, standings[1].Membership.ID)
	assert.Equal(t, "Bob", standings[2].Membership.PlayerName)
	assert.Equal(t, 3, standings[2].Position)

	require.Len(t, standings[0].RecentMatches, league.RecentMatchLimit)
	assert.Equal(t, ids[3], standings[0].RecentMatches[0].ID, "recent matches are newest first")
	assert.Empty(t, standings[1].RecentMatches)

	all, err := store.GetMatches(ctx, f.league.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	empty, err := store.GetStandings(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
