package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/ladderlink/ladderlink/internal/pubsub"
	"github.com/ladderlink/ladderlink/internal/rating"
	"github.com/ladderlink/ladderlink/internal/score"
)

// New creates a new Processor.
func New(store Store, rater Rater, cache cache.StandingsCache, notifier Notifier, metrics metrics.Metrics, counters metrics.CounterStore, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		store:    store,
		rater:    rater,
		cache:    cache,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
		counters: counters,
	}
}

// RecordMatch validates a submitted score sheet, then saves the match together with
// both players' new ratings. Validation failures are returned as *score.ValidationError
// and nothing is written. A missing membership returns league.ErrMembershipNotFound,
// also before any write. If the rating update fails, the match is not saved either.
func (p *Processor) RecordMatch(ctx context.Context, sub Submission) (*Recorded, error) {
	logger := log.FromContext(ctx)
	if sub.OpponentID != "" && sub.OpponentID == sub.ReporterID {
		return nil, ErrSamePlayer
	}

	// Flags sent by a client are never trusted; the sheet is rebuilt from the raw sets.
	result, err := score.Submit(score.Evaluate(sub.Sets), sub.OpponentID)
	if err != nil {
		logger.Info("Rejected score submission", "leagueID", sub.LeagueID, "reporter", sub.ReporterID, "reason", err)
		p.metrics.IncValidationRejected()
		p.counters.Increment(ctx, metrics.CounterValidationRejected)
		return nil, err
	}

	for _, playerID := range []string{sub.ReporterID, sub.OpponentID} {
		if _, err := p.store.GetMembership(ctx, playerID, sub.LeagueID); err != nil {
			return nil, err
		}
	}

	winnerID, loserID := sub.ReporterID, sub.OpponentID
	if result.Winner == score.Player2 {
		winnerID, loserID = loserID, winnerID
	}
	outcome, err := rating.NewOutcome(winnerID, loserID)
	if err != nil {
		return nil, err
	}

	match := &league.MatchRecord{
		LeagueID:  sub.LeagueID,
		Player1ID: sub.ReporterID,
		Player2ID: sub.OpponentID,
		Sets:      result.Sets,
		Winner:    result.Winner,
		WinnerID:  outcome.WinnerID,
		LoserID:   outcome.LoserID,
		PlayedAt:  sub.PlayedAt,
	}
	// The match and both rating changes are written together or not at all.
	res, err := p.rater.RateMatch(ctx, match)
	if err != nil {
		logger.Error("Failed to save match result", "error", err, "leagueID", sub.LeagueID)
		return nil, fmt.Errorf("failed to save match result: %w", err)
	}
	p.metrics.IncMatchesRecorded()
	p.counters.Increment(ctx, metrics.CounterMatchesRecorded)
	p.cache.Invalidate(ctx, sub.LeagueID)

	event := pubsub.MatchRecordedEvent{
		MatchID:      match.ID,
		LeagueID:     match.LeagueID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		WinnerRating: res.Winner.After,
		LoserRating:  res.Loser.After,
		PlayedAt:     match.PlayedAt,
	}
	if err := p.pubsub.SendMessage(ctx, pubsub.EventMatchRecorded, event); err != nil {
		logger.Warn("Failed to publish match-recorded event", "error", err, "matchID", match.ID)
	}

	logger.Info("Recorded match", "matchID", match.ID, "winner", winnerID, "loser", loserID,
		"winner_rating", res.Winner.After, "loser_rating", res.Loser.After)
	return &Recorded{Match: match, Rating: res}, nil
}

// HandleMatchRecorded advances the match named by a match-recorded event. An error
// means the match did not reach a resting state and the event should be redelivered.
func (p *Processor) HandleMatchRecorded(ctx context.Context, event pubsub.MatchRecordedEvent, dryRun bool) error {
	match, err := p.store.GetMatch(ctx, event.MatchID)
	if err != nil {
		return err
	}
	return p.ProcessMatch(ctx, match, dryRun)
}

// ProcessMatches fetches matches that need processing and advances them through the state machine.
func (p *Processor) ProcessMatches(ctx context.Context, dryRun bool) {
	logger := log.FromContext(ctx)
	logger.Info("Starting match processing...")
	matches, err := p.store.GetMatchesForProcessing(ctx)
	if err != nil {
		logger.Error("Failed to get matches for processing", "error", err)
		return
	}

	if len(matches) == 0 {
		logger.Info("No matches to process.")
		return
	}

	logger.Info("Found matches to process", "count", len(matches))
	for _, match := range matches {
		startTime := time.Now()
		if err := p.ProcessMatch(ctx, match, dryRun); err != nil {
			logger.Warn("Match left for the next sweep", "matchID", match.ID, "status", match.ProcessingStatus, "error", err)
		}
		p.metrics.ObserveProcessingDuration(time.Since(startTime).Seconds())
	}
	logger.Info("Match processing finished.")
}

// ProcessMatch advances a single match as far as it can go:
// RATED -> RESULT_NOTIFIED -> COMPLETED. NEW matches have not been rated and are
// left for manual review. An error is returned
// when a step failed and the match stopped short of COMPLETED.
func (p *Processor) ProcessMatch(ctx context.Context, match *league.MatchRecord, dryRun bool) error {
	logger := log.FromContext(ctx)
	logger.Info("Processing match", "matchID", match.ID, "initial_status", match.ProcessingStatus)
	defer p.metrics.IncMatchesProcessed()
	for {
		currentState := match.ProcessingStatus
		logger.Debug("Evaluating match state", "matchID", match.ID, "status", currentState)

		switch currentState {
		case league.StatusNew:
			logger.Warn("Match was saved without a rating update. Leaving it for manual review.", "matchID", match.ID)
			return nil

		case league.StatusRated:
			logger.Info("Match has been rated. Sending result notification.", "matchID", match.ID)
			result, err := p.resultNotification(ctx, match)
			if err != nil {
				logger.Error("Failed to build result notification", "error", err, "matchID", match.ID)
				return fmt.Errorf("failed to build result notification: %w", err)
			}
			if err := p.notifier.SendResultNotification(ctx, *result, dryRun); err != nil {
				logger.Error("Failed to send result notification", "error", err, "matchID", match.ID)
				return fmt.Errorf("failed to send result notification: %w", err)
			}
			if err := p.updateStatus(ctx, match, league.StatusResultNotified, dryRun); err != nil {
				return err
			}

		case league.StatusResultNotified:
			logger.Info("Match result has been notified. Marking match as complete.", "matchID", match.ID)
			if err := p.updateStatus(ctx, match, league.StatusCompleted, dryRun); err != nil {
				return err
			}

		case league.StatusCompleted:
			logger.Info("Finished processing match", "matchID", match.ID, "final_status", match.ProcessingStatus)
			return nil

		default:
			logger.Warn("Unknown processing status", "status", currentState, "matchID", match.ID)
			return nil
		}
	}
}

func (p *Processor) resultNotification(ctx context.Context, match *league.MatchRecord) (*notifier.ResultNotification, error) {
	l, err := p.store.GetLeague(ctx, match.LeagueID)
	if err != nil {
		return nil, err
	}
	winner, err := p.playerResult(ctx, match.WinnerID, match)
	if err != nil {
		return nil, err
	}
	loser, err := p.playerResult(ctx, match.LoserID, match)
	if err != nil {
		return nil, err
	}
	return &notifier.ResultNotification{League: l, Match: match, Winner: *winner, Loser: *loser}, nil
}

func (p *Processor) playerResult(ctx context.Context, playerID string, match *league.MatchRecord) (*notifier.PlayerResult, error) {
	m, err := p.store.GetMembership(ctx, playerID, match.LeagueID)
	if err != nil {
		return nil, err
	}
	res := &notifier.PlayerResult{Name: m.PlayerName, Rating: m.Rating}

	history, err := p.store.GetRatingHistory(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	for _, entry := range history {
		if entry.MatchID == match.ID {
			res.Rating = entry.After
			res.Change = entry.Change
			break
		}
	}
	return res, nil
}

func (p *Processor) updateStatus(ctx context.Context, match *league.MatchRecord, newStatus league.ProcessingStatus, dryRun bool) error {
	logger := log.FromContext(ctx)
	if dryRun {
		logger.Info("[Dry Run] Would update match status", "matchID", match.ID, "from", match.ProcessingStatus, "to", newStatus)
		match.ProcessingStatus = newStatus // Update in-memory for the loop
		return nil
	}

	if err := p.store.UpdateProcessingStatus(ctx, match.ID, newStatus); err != nil {
		logger.Error("Failed to update processing status", "error", err, "matchID", match.ID)
		return fmt.Errorf("failed to update status to %s: %w", newStatus, err)
	}
	logger.Debug("Successfully updated status", "matchID", match.ID, "from", match.ProcessingStatus, "to", newStatus)
	match.ProcessingStatus = newStatus // Keep the in-memory object in sync
	return nil
}
