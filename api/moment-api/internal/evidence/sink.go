package internal_evidence

import (
	"context"

	internal_session "github.com/teachermoments/moments/api/moment-api/internal/session"
	"github.com/teachermoments/moments/pkg/commons"
)

// NewSessionSink adapts the evidence store into the session engine's log
// sink. The sink must never fail the caller: a write error is logged and
// swallowed, the session keeps going.
func NewSessionSink(store Store, app string, version int, logger commons.Logger) internal_session.EventSink {
	return func(eventType string, payload interface{}) {
		if _, err := store.Save(context.Background(), app, eventType, version, payload); err != nil {
			logger.Errorf("evidence sink write failed for %s: %v", eventType, err)
		}
	}
}
