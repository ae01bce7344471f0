package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/database"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/pubsub"
	"github.com/ladderlink/ladderlink/internal/rating"
	"github.com/ladderlink/ladderlink/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRater struct {
	calls  []league.MatchRecord
	result *rating.Result
	err    error
}

func (f *fakeRater) RateMatch(ctx context.Context, match *league.MatchRecord) (*rating.Result, error) {
	f.calls = append(f.calls, *match)
	if f.err != nil {
		return nil, f.err
	}
	match.ID = "match-1"
	match.ProcessingStatus = league.StatusRated
	return f.result, nil
}

type deps struct {
	store    *league.MockStore
	rater    *fakeRater
	cache    *cache.Mock
	notif    *notifier.Mock
	metrics  *metrics.Mock
	counters *metrics.MockCounterStore
	pubsub   *pubsub.MockPubSubClient
}

func setup() (*Processor, *deps) {
	d := &deps{
		store: league.NewMock(),
		rater: &fakeRater{result: &rating.Result{
			Winner: league.RatingChange{PlayerID: "alice", Before: 1400, After: 1416},
			Loser:  league.RatingChange{PlayerID: "bob", Before: 1400, After: 1384},
		}},
		cache:    cache.NewMock(),
		notif:    notifier.NewMock(),
		metrics:  metrics.NewMock(),
		counters: metrics.NewMockCounterStore(),
		pubsub:   pubsub.NewMock(),
	}
	d.store.GetMembershipFunc = func(playerID, leagueID string) (*league.Membership, error) {
		switch playerID {
		case "alice", "bob":
			return &league.Membership{ID: "m-" + playerID, PlayerID: playerID, PlayerName: playerID, LeagueID: leagueID, Rating: 1400}, nil
		}
		return nil, league.ErrMembershipNotFound
	}
	p := New(d.store, d.rater, d.cache, d.notif, d.metrics, d.counters, d.pubsub)
	return p, d
}

func submission(sets ...score.SetScore) Submission {
	sub := Submission{LeagueID: "L", ReporterID: "alice", OpponentID: "bob", PlayedAt: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	copy(sub.Sets[:], sets)
	return sub
}

func TestProcessor_RecordMatch(t *testing.T) {
	t.Run("valid sweep is saved, rated and published", func(t *testing.T) {
		p, d := setup()

		recorded, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 6, Player2: 3},
			score.SetScore{Player1: 6, Player2: 4},
		))
		require.NoError(t, err)

		require.Len(t, d.rater.calls, 1)
		match := d.rater.calls[0]
		assert.Equal(t, "L", match.LeagueID)
		assert.Equal(t, "alice", match.WinnerID)
		assert.Equal(t, "bob", match.LoserID)
		assert.Equal(t, score.Player1, match.Winner)
		assert.Equal(t, "match-1", recorded.Match.ID)
		assert.Equal(t, league.StatusRated, recorded.Match.ProcessingStatus)

		assert.Equal(t, []string{"L"}, d.cache.InvalidateCalls)
		require.Len(t, d.pubsub.SendMessageCalls, 1)
		assert.Equal(t, pubsub.EventMatchRecorded, d.pubsub.SendMessageCalls[0].Topic)
		event, ok := d.pubsub.SendMessageCalls[0].Data.(pubsub.MatchRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, 1416, event.WinnerRating)

		assert.Equal(t, 1, d.metrics.MatchesRecorded())
		assert.Equal(t, 1, d.counters.Get(metrics.CounterMatchesRecorded))
	})

	t.Run("opponent winning in three sets is the rated winner", func(t *testing.T) {
		p, d := setup()

		_, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 6, Player2: 4},
			score.SetScore{Player1: 3, Player2: 6},
			score.SetScore{Player1: 5, Player2: 7},
		))
		require.NoError(t, err)
		require.Len(t, d.rater.calls, 1)
		assert.Equal(t, "bob", d.rater.calls[0].WinnerID)
		assert.Equal(t, "alice", d.rater.calls[0].LoserID)
		assert.Equal(t, score.Player2, d.rater.calls[0].Winner)
	})

	t.Run("invalid score writes nothing", func(t *testing.T) {
		p, d := setup()

		_, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 6, Player2: 3},
			score.SetScore{Player1: 6, Player2: 5},
		))
		var verr *score.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, score.ErrInvalidSetScore)
		assert.Equal(t, 2, verr.Set)

		assert.Empty(t, d.rater.calls)
		assert.Equal(t, 1, d.metrics.ValidationRejected())
		assert.Equal(t, 1, d.counters.Get(metrics.CounterValidationRejected))
	})

	t.Run("missing tiebreak points are rejected", func(t *testing.T) {
		p, d := setup()

		_, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 7, Player2: 6},
			score.SetScore{Player1: 6, Player2: 2},
		))
		assert.ErrorIs(t, err, score.ErrMissingTiebreaker)
		assert.Empty(t, d.rater.calls)
	})

	t.Run("unknown opponent writes nothing", func(t *testing.T) {
		p, d := setup()
		sub := submission(score.SetScore{Player1: 6, Player2: 0}, score.SetScore{Player1: 6, Player2: 0})
		sub.OpponentID = "ghost"

		_, err := p.RecordMatch(context.Background(), sub)
		assert.ErrorIs(t, err, league.ErrMembershipNotFound)
		assert.Empty(t, d.rater.calls)
	})

	t.Run("playing yourself is rejected", func(t *testing.T) {
		p, d := setup()
		sub := submission(score.SetScore{Player1: 6, Player2: 0}, score.SetScore{Player1: 6, Player2: 0})
		sub.OpponentID = "alice"

		_, err := p.RecordMatch(context.Background(), sub)
		assert.ErrorIs(t, err, ErrSamePlayer)
		assert.Empty(t, d.rater.calls)
	})

	t.Run("rating failure records nothing", func(t *testing.T) {
		p, d := setup()
		d.rater.err = rating.ErrPersistence

		recorded, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 6, Player2: 3},
			score.SetScore{Player1: 6, Player2: 4},
		))
		assert.ErrorIs(t, err, rating.ErrPersistence)
		assert.Nil(t, recorded)
		assert.Empty(t, d.store.CreateMatchCalls)
		assert.Empty(t, d.cache.InvalidateCalls)
		assert.Empty(t, d.pubsub.SendMessageCalls)
		assert.Equal(t, 0, d.metrics.MatchesRecorded())
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		p, d := setup()
		d.pubsub.SendMessageFunc = func(topic pubsub.EventType, data any) error {
			return errors.New("pubsub unavailable")
		}

		_, err := p.RecordMatch(context.Background(), submission(
			score.SetScore{Player1: 6, Player2: 3},
			score.SetScore{Player1: 6, Player2: 4},
		))
		assert.NoError(t, err)
	})
}

func TestProcessor_ProcessMatches(t *testing.T) {
	t.Run("rated match is notified and completed", func(t *testing.T) {
		p, d := setup()
		match := &league.MatchRecord{ID: "m1", LeagueID: "L", WinnerID: "alice", LoserID: "bob", ProcessingStatus: league.StatusRated}
		d.store.GetMatchesForProcessingFunc = func() ([]*league.MatchRecord, error) {
			return []*league.MatchRecord{match}, nil
		}
		d.store.GetLeagueFunc = func(leagueID string) (*league.League, error) {
			return &league.League{ID: leagueID, Name: "Tuesday Ladder"}, nil
		}
		d.store.GetRatingHistoryFunc = func(membershipID string) ([]league.RatingHistoryEntry, error) {
			if membershipID == "m-alice" {
				return []league.RatingHistoryEntry{{MatchID: "m0", After: 1400}, {MatchID: "m1", Before: 1400, After: 1416, Change: 16}}, nil
			}
			return []league.RatingHistoryEntry{{MatchID: "m1", Before: 1400, After: 1384, Change: -16}}, nil
		}

		p.ProcessMatches(context.Background(), false)

		require.Len(t, d.notif.SendResultNotificationCalls, 1)
		sent := d.notif.SendResultNotificationCalls[0]
		assert.Equal(t, "Tuesday Ladder", sent.League.Name)
		assert.Equal(t, notifier.PlayerResult{Name: "alice", Rating: 1416, Change: 16}, sent.Winner)
		assert.Equal(t, notifier.PlayerResult{Name: "bob", Rating: 1384, Change: -16}, sent.Loser)

		require.Len(t, d.store.UpdateProcessingStatusCalls, 2)
		assert.Equal(t, league.StatusResultNotified, d.store.UpdateProcessingStatusCalls[0].Status)
		assert.Equal(t, league.StatusCompleted, d.store.UpdateProcessingStatusCalls[1].Status)
		assert.Equal(t, league.StatusCompleted, match.ProcessingStatus)
		assert.Equal(t, 1, d.metrics.MatchesProcessed())
		assert.Len(t, d.metrics.ProcessingDurations(), 1)
	})

	t.Run("new match is left for review", func(t *testing.T) {
		p, d := setup()
		match := &league.MatchRecord{ID: "m1", LeagueID: "L", ProcessingStatus: league.StatusNew}
		d.store.GetMatchesForProcessingFunc = func() ([]*league.MatchRecord, error) {
			return []*league.MatchRecord{match}, nil
		}

		p.ProcessMatches(context.Background(), false)

		assert.Empty(t, d.notif.SendResultNotificationCalls)
		assert.Empty(t, d.store.UpdateProcessingStatusCalls)
		assert.Equal(t, league.StatusNew, match.ProcessingStatus)
	})

	t.Run("failed notification keeps the match rated", func(t *testing.T) {
		p, d := setup()
		match := &league.MatchRecord{ID: "m1", LeagueID: "L", WinnerID: "alice", LoserID: "bob", ProcessingStatus: league.StatusRated}
		d.store.GetMatchesForProcessingFunc = func() ([]*league.MatchRecord, error) {
			return []*league.MatchRecord{match}, nil
		}
		d.notif.SendResultNotificationFunc = func(result notifier.ResultNotification, dryRun bool) error {
			return errors.New("slack down")
		}

		p.ProcessMatches(context.Background(), false)

		assert.Empty(t, d.store.UpdateProcessingStatusCalls)
		assert.Equal(t, league.StatusRated, match.ProcessingStatus)
	})

	t.Run("dry run does not write statuses", func(t *testing.T) {
		p, d := setup()
		match := &league.MatchRecord{ID: "m1", LeagueID: "L", WinnerID: "alice", LoserID: "bob", ProcessingStatus: league.StatusResultNotified}
		d.store.GetMatchesForProcessingFunc = func() ([]*league.MatchRecord, error) {
			return []*league.MatchRecord{match}, nil
		}

		p.ProcessMatches(context.Background(), true)

		assert.Empty(t, d.store.UpdateProcessingStatusCalls)
		assert.Equal(t, league.StatusCompleted, match.ProcessingStatus)
	})
}

func TestProcessor_HandleMatchRecorded(t *testing.T) {
	p, d := setup()
	d.store.GetMatchFunc = func(matchID string) (*league.MatchRecord, error) {
		return &league.MatchRecord{ID: matchID, LeagueID: "L", ProcessingStatus: league.StatusResultNotified}, nil
	}

	err := p.HandleMatchRecorded(context.Background(), pubsub.MatchRecordedEvent{MatchID: "m1"}, false)
	require.NoError(t, err)
	require.Len(t, d.store.UpdateProcessingStatusCalls, 1)
	assert.Equal(t, "m1", d.store.UpdateProcessingStatusCalls[0].MatchID)

	d.store.GetMatchFunc = nil
	err = p.HandleMatchRecorded(context.Background(), pubsub.MatchRecordedEvent{MatchID: "missing"}, false)
	assert.ErrorIs(t, err, league.ErrMatchNotFound)
}

func TestProcessor_HandleMatchRecorded_NotificationFailure(t *testing.T) {
	p, d := setup()
	d.store.GetMatchFunc = func(matchID string) (*league.MatchRecord, error) {
		return &league.MatchRecord{ID: matchID, LeagueID: "L", WinnerID: "alice", LoserID: "bob", ProcessingStatus: league.StatusRated}, nil
	}
	d.notif.SendResultNotificationFunc = func(result notifier.ResultNotification, dryRun bool) error {
		return errors.New("slack down")
	}

	err := p.HandleMatchRecorded(context.Background(), pubsub.MatchRecordedEvent{MatchID: "m1"}, false)
	assert.Error(t, err, "the event must be redelivered")
	assert.Empty(t, d.store.UpdateProcessingStatusCalls)
}

func TestProcessor_HandleMatchRecorded_StatusWriteFailure(t *testing.T) {
	p, d := setup()
	d.store.GetMatchFunc = func(matchID string) (*league.MatchRecord, error) {
		return &league.MatchRecord{ID: matchID, LeagueID: "L", ProcessingStatus: league.StatusResultNotified}, nil
	}
	d.store.UpdateProcessingStatusFunc = func(matchID string, status league.ProcessingStatus) error {
		return errors.New("database is locked")
	}

	err := p.HandleMatchRecorded(context.Background(), pubsub.MatchRecordedEvent{MatchID: "m1"}, false)
	assert.Error(t, err)
}

// TestProcessor_EndToEnd runs submissions against a real database and rating engine.
func TestProcessor_EndToEnd(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	ctx := context.Background()

	store := league.New(db)
	l, err := store.CreateLeague(ctx, "Tuesday Ladder", "", "TUE")
	require.NoError(t, err)
	alice, err := store.RegisterPlayer(ctx, "Alice", "alice@example.com", "TUE", rating.InitialRating)
	require.NoError(t, err)
	bob, err := store.RegisterPlayer(ctx, "Bob", "bob@example.com", "TUE", rating.InitialRating)
	require.NoError(t, err)

	m := metrics.NewMock()
	notif := notifier.NewMock()
	p := New(store, rating.NewEngine(store, m), cache.Noop{}, notif, m, metrics.New(db), pubsub.NewMock())

	sub := Submission{
		LeagueID:   l.ID,
		ReporterID: alice.PlayerID,
		OpponentID: bob.PlayerID,
		Sets:       [score.SetCount]score.SetScore{{Player1: 6, Player2: 3}, {Player1: 6, Player2: 4}},
	}
	first, err := p.RecordMatch(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, 1416, first.Rating.Winner.After)
	assert.Equal(t, 1384, first.Rating.Loser.After)

	// Ratings compound: the second identical result is worth less to the favourite.
	second, err := p.RecordMatch(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, 1416, second.Rating.Winner.Before)
	assert.Less(t, second.Rating.Winner.Delta(), 16)

	standings, err := store.GetStandings(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, alice.ID, standings[0].Membership.ID)
	assert.Equal(t, 2, standings[0].Membership.Wins)
	assert.Equal(t, 2, standings[1].Membership.Losses)

	p.ProcessMatches(ctx, false)
	assert.Len(t, notif.SendResultNotificationCalls, 2)
	pending, err := store.GetMatchesForProcessing(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestProcessor_ConcurrentSubmissions checks that every stored match is counted in
// the players' records, however many submissions race for the same players.
func TestProcessor_ConcurrentSubmissions(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	ctx := context.Background()

	store := league.New(db)
	l, err := store.CreateLeague(ctx, "Tuesday Ladder", "", "TUE")
	require.NoError(t, err)
	alice, err := store.RegisterPlayer(ctx, "Alice", "alice@example.com", "TUE", rating.InitialRating)
	require.NoError(t, err)
	bob, err := store.RegisterPlayer(ctx, "Bob", "bob@example.com", "TUE", rating.InitialRating)
	require.NoError(t, err)

	m := metrics.NewMock()
	p := New(store, rating.NewEngine(store, m), cache.Noop{}, notifier.NewMock(), m, metrics.New(db), pubsub.NewMock())

	const submissions = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.RecordMatch(ctx, Submission{
				LeagueID:   l.ID,
				ReporterID: alice.PlayerID,
				OpponentID: bob.PlayerID,
				Sets:       [score.SetCount]score.SetScore{{Player1: 6, Player2: 1}, {Player1: 6, Player2: 2}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	matches, err := store.GetMatches(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, matches, succeeded)
	assert.Positive(t, succeeded)

	for _, playerID := range []string{alice.PlayerID, bob.PlayerID} {
		member, err := store.GetMembership(ctx, playerID, l.ID)
		require.NoError(t, err)
		assert.Equal(t, len(matches), member.Wins+member.Losses, "player %s", playerID)
	}
	assert.Equal(t, succeeded, m.MatchesRecorded())
}
