package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/ladderlink/ladderlink/internal/processor"
	"github.com/ladderlink/ladderlink/internal/pubsub"
)

// MatchRecordedHandler receives match-recorded events from a Pub/Sub push subscription.
// Any non-2xx response makes Pub/Sub redeliver the message.
func MatchRecordedHandler(proc *processor.Processor, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		data, err := pubsub.ReadPushRequest(r.Body)
		if err != nil {
			logger.Error("Failed to read push request", "error", err)
			http.Error(w, "Invalid push request", http.StatusBadRequest)
			return
		}

		var event pubsub.MatchRecordedEvent
		if err := pubsubClient.ProcessMessage(data, &event); err != nil {
			http.Error(w, "Failed to decode message", http.StatusBadRequest)
			return
		}
		logger.Debug("Received match-recorded event", "matchID", event.MatchID)

		err = proc.HandleMatchRecorded(r.Context(), event, IsDryRunFromContext(r))
		if errors.Is(err, league.ErrMatchNotFound) {
			logger.Warn("Ignoring event for unknown match", "matchID", event.MatchID)
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			logger.Error("Failed to process match-recorded event", "error", err, "matchID", event.MatchID)
			http.Error(w, "Failed to process event", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
