package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biskitgame/biskit-backend/internal/hub"
	"github.com/biskitgame/biskit-backend/pkg/types"
)

// Handler upgrades the connection, registers it with the hub, and pumps
// messages both ways until the socket closes.
func Handler(h *hub.Hub, origins []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 16)

		h.Inbox() <- hub.Connect{ConnID: connID, Outbox: out}
		defer func() { h.Inbox() <- hub.Disconnect{ConnID: connID} }()

		// Writer goroutine: drains the outbox until the hub closes it.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Anything else: exit too; the deferred Disconnect
				// cleans up.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","message":"bad json"}`))
				continue
			}

			msg, ok := toHubMsg(connID, cm)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","message":"unknown type"}`))
				continue
			}
			h.Inbox() <- msg
		}
	}
}

func toHubMsg(connID string, m types.ClientMessage) (hub.Msg, bool) {
	switch m.Type {
	case "createRoom":
		return hub.CreateRoom{ConnID: connID, RoomName: m.RoomName, PlayerName: m.PlayerName}, true
	case "joinRoom":
		return hub.JoinRoom{ConnID: connID, RoomName: m.RoomName, PlayerName: m.PlayerName}, true
	case "rollDice":
		return hub.RollDice{ConnID: connID, Room: m.Room, NumDice: m.NumDice}, true
	default:
		return nil, false
	}
}
