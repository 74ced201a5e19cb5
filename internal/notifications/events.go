package notifications

import (
	"encoding/json"
	"fmt"
)

// Event types carried on the draft change stream and the events channel.
const (
	EventDraftUpdated  = "draft.updated"
	EventSessionEnded  = "session.ended"
	EventPostScheduled = "post.scheduled"
	EventPostPublished = "post.published"
	EventPostFailed    = "post.failed"
)

// Event is the envelope written to WebSocket clients and Redis channels.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Encode marshals an event envelope to its wire form.
func Encode(eventType, sessionID string, payload any) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, SessionID: sessionID, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}
