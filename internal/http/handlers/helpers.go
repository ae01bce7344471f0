package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/slack-go/slack"
)

// ContextKey is a custom type to avoid key collisions in context.
type ContextKey string

const (
	DryRunKey ContextKey = "dryRun"
)

// IsDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func IsDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(DryRunKey).(bool)
	return ok && dryRun
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	writeJSON(w, http.StatusOK, msg)
}

// loadStandings serves standings from the cache and fills it on a miss.
func loadStandings(ctx context.Context, store league.Store, standingsCache cache.StandingsCache, leagueID string) ([]league.Standing, error) {
	logger := log.FromContext(ctx)
	if standings, ok := standingsCache.Get(ctx, leagueID); ok {
		logger.Debug("Serving cached standings", "leagueID", leagueID)
		return standings, nil
	}
	standings, err := store.GetStandings(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	standingsCache.Set(ctx, leagueID, standings)
	return standings, nil
}
