package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/cache"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/notifier"
	"github.com/slack-go/slack"
)

// StandingsCommandHandler answers the /standings slash command. The command text is
// the league code.
func StandingsCommandHandler(store league.Store, standingsCache cache.StandingsCache, notifier notifier.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		code := strings.TrimSpace(r.FormValue("text"))
		logger.Debug("Received standings command", "code", code, "user", r.FormValue("user_name"))

		var msg any
		l, err := store.GetLeagueByCode(r.Context(), code)
		switch {
		case errors.Is(err, league.ErrLeagueNotFound):
			msg, err = notifier.FormatLeagueNotFoundResponse(code)
		case err != nil:
			http.Error(w, "Failed to get league", http.StatusInternalServerError)
			logger.Error("Failed to get league", "error", err, "code", code)
			return
		default:
			standings, serr := loadStandings(r.Context(), store, standingsCache, l.ID)
			if serr != nil {
				http.Error(w, "Failed to get standings", http.StatusInternalServerError)
				logger.Error("Failed to get standings", "error", serr, "leagueID", l.ID)
				return
			}
			msg, err = notifier.FormatStandingsResponse(l, standings)
		}
		if err != nil {
			http.Error(w, "Failed to format standings", http.StatusInternalServerError)
			logger.Error("Failed to format standings", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			logger.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}
