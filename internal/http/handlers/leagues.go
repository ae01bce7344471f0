package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/metrics"
	"github.com/ladderlink/ladderlink/internal/rating"
)

type createLeagueRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	LeagueCode string `json:"league_code"`
}

func CreateLeagueHandler(store league.Store, counters metrics.CounterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		var req createLeagueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
			http.Error(w, "name and code are required", http.StatusBadRequest)
			return
		}

		l, err := store.CreateLeague(r.Context(), strings.TrimSpace(req.Name), req.Description, req.Code)
		if errors.Is(err, league.ErrDuplicateLeagueCode) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, "Failed to create league", http.StatusInternalServerError)
			logger.Error("Failed to create league", "error", err)
			return
		}
		counters.Increment(r.Context(), metrics.CounterLeaguesCreated)
		writeJSON(w, http.StatusCreated, l)
	}
}

func GetLeagueHandler(store league.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "code is required", http.StatusBadRequest)
			return
		}
		l, err := store.GetLeagueByCode(r.Context(), code)
		if errors.Is(err, league.ErrLeagueNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to get league", http.StatusInternalServerError)
			logger.Error("Failed to get league", "error", err, "code", code)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// RegisterHandler adds a player to the league with the given invite code.
func RegisterHandler(store league.Store, standingsCache cache.StandingsCache, counters metrics.CounterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.LeagueCode) == "" {
			http.Error(w, "name, email and league_code are required", http.StatusBadRequest)
			return
		}

		m, err := store.RegisterPlayer(r.Context(), strings.TrimSpace(req.Name), req.Email, req.LeagueCode, rating.InitialRating)
		switch {
		case errors.Is(err, league.ErrLeagueNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, league.ErrAlreadyMember):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to register player", http.StatusInternalServerError)
			logger.Error("Failed to register player", "error", err, "leagueCode", req.LeagueCode)
			return
		}

		standingsCache.Invalidate(r.Context(), m.LeagueID)
		counters.Increment(r.Context(), metrics.CounterPlayersRegistered)
		writeJSON(w, http.StatusCreated, m)
	}
}
