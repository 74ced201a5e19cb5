package server

import (
	"encoding/json"
	"log/slog"

	"postdeck/internal/middleware"
	"postdeck/internal/models"
	"postdeck/internal/notifications"
	"postdeck/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// requireWebSocketUpgrade rejects plain HTTP requests on websocket routes and
// checks that the session exists before the upgrade.
func (s *Server) requireWebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	if _, err := s.lookupSession(c); err != nil {
		return nil
	}
	return c.Next()
}

// WebSocketDraftHandler streams draft.updated and session.ended events for
// one session. The first frame is the current draft state. Clients may send
// {"type":"sync"} to get the state again, e.g. after a messages_dropped notice.
func (s *Server) WebSocketDraftHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sessionID := conn.Params("id")

		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"session not found"}}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(sessionID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		if !s.admitStream(sess, client) {
			middleware.Logger.Info("draft stream refused, session ended", slog.String("session_id", sessionID))
			client.WritePump()
			return
		}

		sendState := func(c *notifications.Client) {
			state, err := sess.State()
			if err != nil {
				return
			}
			msg, err := notifications.Encode(notifications.EventDraftUpdated, sessionID, state)
			if err != nil {
				return
			}
			c.TrySend([]byte(msg))
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				return
			}
			switch incoming.Type {
			case "sync":
				sendState(c)
			case "ping":
				c.TrySend([]byte(`{"type":"pong"}`))
			}
		}

		middleware.Logger.Info("draft stream opened", slog.String("session_id", sessionID))
		sendState(client)

		go client.WritePump()
		client.ReadPump()

		middleware.Logger.Info("draft stream closed", slog.String("session_id", sessionID))
	})
}

// admitStream keeps a registered stream only while its session is live. A
// session can end between the lookup and Register, after CloseSession has
// already run; such a stream gets the session.ended frame and is closed.
func (s *Server) admitStream(sess *session.Session, client *notifications.Client) bool {
	if _, err := sess.State(); err == nil {
		return true
	}
	message, err := notifications.Encode(notifications.EventSessionEnded, client.SessionID, map[string]string{})
	if err != nil {
		message = ""
	}
	s.hub.CloseClient(client, message)
	return false
}
