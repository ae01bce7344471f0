package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
)

type standingsResponse struct {
	League    *league.League    `json:"league"`
	Standings []league.Standing `json:"standings"`
}

func StandingsHandler(store league.Store, standingsCache cache.StandingsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		leagueID := r.URL.Query().Get("league")
		l, err := store.GetLeague(r.Context(), leagueID)
		if errors.Is(err, league.ErrLeagueNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to get league", http.StatusInternalServerError)
			logger.Error("Failed to get league", "error", err, "leagueID", leagueID)
			return
		}

		standings, err := loadStandings(r.Context(), store, standingsCache, leagueID)
		if err != nil {
			http.Error(w, "Failed to get standings", http.StatusInternalServerError)
			logger.Error("Failed to get standings", "error", err, "leagueID", leagueID)
			return
		}
		writeJSON(w, http.StatusOK, standingsResponse{League: l, Standings: standings})
	}
}

func ListMatchesHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		leagueID := r.URL.Query().Get("league")
		if leagueID == "" {
			http.Error(w, "league is required", http.StatusBadRequest)
			return
		}
		matches, err := store.GetMatches(r.Context(), leagueID)
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			logger.Error("Failed to get matches from store", "error", err)
			return
		}
		if matches == nil {
			matches = []*league.MatchRecord{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}
