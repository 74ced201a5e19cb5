package server

import (
	"context"
	"log/slog"

	"postdeck/internal/middleware"
	"postdeck/internal/notifications"
	"postdeck/internal/observability"
	"postdeck/internal/session"
)

// publishSessionEvent delivers an event to a session's streams. With Redis
// the hub receives it through its subscription; without, it is delivered
// locally.
func (s *Server) publishSessionEvent(sessionID, eventType string, payload any) {
	message, err := notifications.Encode(eventType, sessionID, payload)
	if err != nil {
		middleware.Logger.Error("failed to encode session event",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if s.notifier.Enabled() {
		err := s.notifier.PublishSession(context.Background(), sessionID, message)
		if err == nil {
			return
		}
		middleware.Logger.Warn("failed to publish session event, delivering locally",
			slog.String("event", eventType),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	s.hub.Broadcast(sessionID, message)
}

func (s *Server) onDraftChange(state session.State) {
	s.publishSessionEvent(state.SessionID, notifications.EventDraftUpdated, state)
}

func (s *Server) onSessionEnd(id string, reason session.EndReason) {
	observability.SessionsEnded.WithLabelValues(string(reason)).Inc()
	message, err := notifications.Encode(notifications.EventSessionEnded, id, map[string]string{"reason": string(reason)})
	if err != nil {
		message = ""
	}
	s.hub.CloseSession(id, message)
}

// eventSink routes sink events through Redis when available and to local
// streams otherwise.
type eventSink struct {
	s *Server
}

func (e eventSink) PublishEvent(ctx context.Context, payload string) error {
	if e.s.notifier.Enabled() {
		return e.s.notifier.PublishEvent(ctx, payload)
	}
	e.s.hub.BroadcastAll(payload)
	return nil
}
