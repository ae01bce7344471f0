package handlers

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/processor"
)

// ProcessMatchesHandler sweeps all matches that have not completed processing.
func ProcessMatchesHandler(processor *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromContext(r.Context())
		logger.Info("Starting match processing...")
		isDryRun := IsDryRunFromContext(r)

		processor.ProcessMatches(r.Context(), isDryRun)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Match processing completed.")
	}
}
