package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/processor"
	"github.com/ladderlink/ladderlink/internal/score"
)

// Edit types accepted by the score sheet endpoint.
const (
	EditScore      = "score"
	EditTiebreaker = "tiebreaker"
	EditReset      = "reset"
)

type scoreEditRequest struct {
	State score.State `json:"state"`
	Edit  struct {
		Type   string     `json:"type"`
		Set    int        `json:"set"`
		Side   score.Side `json:"side"`
		Value  int        `json:"value"`
		Points int        `json:"points"`
	} `json:"edit"`
}

type errorResponse struct {
	Error string `json:"error"`
	Set   int    `json:"set,omitempty"`
}

func (req scoreEditRequest) event() (score.Event, error) {
	switch req.Edit.Type {
	case EditScore:
		return score.ScoreEdit{Set: req.Edit.Set, Side: req.Edit.Side, Value: req.Edit.Value}, nil
	case EditTiebreaker:
		return score.TiebreakerEdit{Set: req.Edit.Set, Points: req.Edit.Points}, nil
	case EditReset:
		return score.Reset{}, nil
	}
	return nil, fmt.Errorf("unknown edit type %q", req.Edit.Type)
}

// ScoreEditHandler applies one edit to a score sheet and returns the next state.
// Rejected edits return 422 and leave the sheet as it was.
func ScoreEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		event, err := req.event()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		next, err := score.Apply(req.State, event)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, next)
	}
}

// SubmitMatchHandler validates and records a match result.
func SubmitMatchHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		var sub processor.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		recorded, err := proc.RecordMatch(r.Context(), sub)
		var verr *score.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Set: verr.Set})
			return
		case errors.Is(err, league.ErrMembershipNotFound):
			http.Error(w, "Both players must be members of the league", http.StatusNotFound)
			return
		case errors.Is(err, processor.ErrSamePlayer):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			logger.Error("Failed to record match", "error", err, "leagueID", sub.LeagueID)
			http.Error(w, "Failed to save match result", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, recorded)
	}
}
