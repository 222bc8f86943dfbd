package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteSync/internal/middleware"
	"github.com/atinyakov/NoteSync/internal/notify"
)

// WSHandler upgrades authenticated requests to websocket sessions and wires
// them into the notification hub. A connection is subscribed to its user's
// channel for its whole lifetime; per-resource rooms are joined and left on
// client request for live co-editing.
type WSHandler struct {
	Hub *notify.Hub
	Log *zap.Logger
	// Upgrader may be customized for origin policy; zero value works for
	// same-origin deployments.
	Upgrader websocket.Upgrader
}

// clientMessage is what a connected client may send: room management or
// advisory co-editing signals.
type clientMessage struct {
	Type       string `json:"type"`
	ResourceID string `json:"resourceId"`
	Field      string `json:"field"`
	Value      string `json:"value"`
	Sender     string `json:"sender"`
}

// Serve handles GET /ws.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.Hub.Subscribe(notify.PrincipalChannel(caller), conn)
	defer func() {
		h.Hub.DropConn(conn)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.Log.Debug("dropping malformed client message", zap.Error(err))
			continue
		}
		h.handle(conn, msg)
	}
}

// handle dispatches one client message. Co-editing signals are relayed to
// everyone else in the resource room; they are advisory and never touch
// persisted state.
func (h *WSHandler) handle(conn *websocket.Conn, msg clientMessage) {
	if msg.ResourceID == "" {
		return
	}
	room := notify.ResourceChannel(msg.ResourceID)

	switch msg.Type {
	case "join_room":
		h.Hub.Subscribe(room, conn)
	case "leave_room":
		h.Hub.Unsubscribe(room, conn)
	case "field_changed":
		h.Hub.PublishExcept(room, conn, notify.Event{
			Kind:       notify.FieldChanged,
			ResourceID: msg.ResourceID,
			Field:      msg.Field,
			Value:      msg.Value,
			Sender:     msg.Sender,
		})
	case "typing_start":
		h.Hub.PublishExcept(room, conn, notify.Event{
			Kind:       notify.TypingStart,
			ResourceID: msg.ResourceID,
			Sender:     msg.Sender,
		})
	case "typing_stop":
		h.Hub.PublishExcept(room, conn, notify.Event{
			Kind:       notify.TypingStop,
			ResourceID: msg.ResourceID,
			Sender:     msg.Sender,
		})
	}
}
