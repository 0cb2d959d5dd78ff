package shared

import (
	"log/slog"
	"net/http"

	"gestao/internal/domain/audit"
	"gestao/internal/transport/http/middleware"
)

// Record leaves an audit trail for the request. Failures are logged, never
// surfaced to the caller.
func Record(r *http.Request, recorder audit.Recorder, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	err := recorder.Record(r.Context(), audit.Entry{
		ActorID:    middleware.ActorID(r.Context()),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
