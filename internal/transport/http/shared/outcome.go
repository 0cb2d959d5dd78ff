package shared

import (
	"net/http"

	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/api"
)

// WriteOutcome answers a fallback-backed write. A SyncLocal outcome still
// succeeds but carries a warning.
func WriteOutcome(w http.ResponseWriter, status int, data any, outcome fallback.Outcome, requestID string) {
	if outcome == fallback.SyncLocal {
		api.SuccessWithWarning(w, status, data, api.LocalOnlyWarning, requestID)
		return
	}
	api.WriteJSON(w, status, api.Envelope{Success: true, Data: data, RequestID: requestID})
}
