package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidOutcome = errors.New("a match needs two different players")
	// ErrPersistence wraps any storage failure other than a missing membership.
	ErrPersistence = errors.New("failed to persist rating update")
)

// MatchOutcome names the winner and the loser of a decided match.
type MatchOutcome struct {
	WinnerID string
	LoserID  string
}

// NewOutcome builds a MatchOutcome from two distinct, non-empty player ids.
func NewOutcome(winnerID, loserID string) (MatchOutcome, error) {
	if winnerID == "" || loserID == "" || winnerID == loserID {
		return MatchOutcome{}, ErrInvalidOutcome
	}
	return MatchOutcome{WinnerID: winnerID, LoserID: loserID}, nil
}

// Result is the rating movement of both players.
type Result struct {
	Winner league.RatingChange `json:"winner"`
	Loser  league.RatingChange `json:"loser"`
}

// Engine applies Elo updates to league memberships.
type Engine struct {
	store   league.Store
	metrics metrics.Metrics
	kFactor int
}

// NewEngine creates an Engine using KFactor.
func NewEngine(store league.Store, metrics metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		metrics: metrics,
		kFactor: KFactor,
	}
}

// MaxAttempts bounds how often a rating update is recomputed after another
// update to one of the players got there first.
const MaxAttempts = 5

// RecordOutcome reads both memberships, computes their new ratings and persists them.
// A non-empty matchID names a NEW match that is marked RATED in the same write.
// If either membership is missing nothing is written and the error wraps
// league.ErrMembershipNotFound. The write only succeeds if neither rating changed
// since it was read; otherwise the update is recomputed, up to MaxAttempts times,
// before failing with league.ErrStaleRating.
func (e *Engine) RecordOutcome(ctx context.Context, leagueID, matchID string, outcome MatchOutcome) (*Result, error) {
	return e.rate(ctx, outcome, league.RatingUpdate{LeagueID: leagueID, MatchID: matchID})
}

// RateMatch saves match and applies its outcome to both players in one write, so a
// match is never stored without its ratings. On success match carries its id and
// the RATED status.
func (e *Engine) RateMatch(ctx context.Context, match *league.MatchRecord) (*Result, error) {
	outcome, err := NewOutcome(match.WinnerID, match.LoserID)
	if err != nil {
		return nil, err
	}
	return e.rate(ctx, outcome, league.RatingUpdate{LeagueID: match.LeagueID, Match: match})
}

func (e *Engine) rate(ctx context.Context, outcome MatchOutcome, update league.RatingUpdate) (*Result, error) {
	if outcome.WinnerID == "" || outcome.LoserID == "" || outcome.WinnerID == outcome.LoserID {
		return nil, ErrInvalidOutcome
	}

	var (
		result *Result
		err    error
	)
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		result, err = e.tryRate(ctx, outcome, update)
		if !errors.Is(err, league.ErrStaleRating) {
			break
		}
		log.Warn("Rating changed during update, recomputing", "attempt", attempt, "leagueID", update.LeagueID,
			"winner", outcome.WinnerID, "loser", outcome.LoserID)
	}

	switch {
	case err == nil:
		e.metrics.IncRatingUpdates()
		return result, nil
	case errors.Is(err, league.ErrMembershipNotFound):
		log.Warn("Membership missing, skipping rating update", "leagueID", update.LeagueID, "winner", outcome.WinnerID, "loser", outcome.LoserID)
		return nil, err
	default:
		e.metrics.IncRatingUpdateFailures()
		log.Error("Failed to apply rating update", "error", err, "leagueID", update.LeagueID, "matchID", update.MatchID)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}

// tryRate makes a single read-compute-write pass.
func (e *Engine) tryRate(ctx context.Context, outcome MatchOutcome, update league.RatingUpdate) (*Result, error) {
	var winner, loser *league.Membership
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := e.store.GetMembership(gctx, outcome.WinnerID, update.LeagueID)
		winner = m
		return err
	})
	g.Go(func() error {
		m, err := e.store.GetMembership(gctx, outcome.LoserID, update.LeagueID)
		loser = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	newWinner, newLoser := Recalculate(winner.Rating, loser.Rating, e.kFactor)
	result := &Result{
		Winner: league.RatingChange{MembershipID: winner.ID, PlayerID: winner.PlayerID, Before: winner.Rating, After: newWinner},
		Loser:  league.RatingChange{MembershipID: loser.ID, PlayerID: loser.PlayerID, Before: loser.Rating, After: newLoser},
	}
	log.Debug("Calculated new ratings",
		"matchID", update.MatchID,
		"winner", winner.PlayerName, "winner_before", winner.Rating, "winner_after", newWinner,
		"loser", loser.PlayerName, "loser_before", loser.Rating, "loser_after", newLoser,
	)

	update.Winner = result.Winner
	update.Loser = result.Loser
	if err := e.store.ApplyRatingUpdate(ctx, update); err != nil {
		return nil, err
	}
	return result, nil
}
