package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/biskitgame/biskit-backend/internal/hub"
	"github.com/biskitgame/biskit-backend/pkg/types"
)

// RoomSnapshot exposes one room's state for debugging and room browsers.
func RoomSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		reply := make(chan hub.View, 1)
		h.Inbox() <- hub.GetView{Room: name, Reply: reply}
		v := <-reply
		if !v.Exists {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		players := make([]types.PlayerInfo, len(v.Players))
		for i, p := range v.Players {
			players[i] = types.PlayerInfo{ID: p.ID, Name: p.Name}
		}
		history := make([]types.RollInfo, len(v.History))
		for i, rec := range v.History {
			history[i] = types.RollInfo{PlayerName: rec.PlayerName, DiceResults: rec.DiceResults, TotalResult: rec.Total}
		}
		chicken := ""
		if v.Chicken != nil {
			chicken = v.Chicken.Name
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Room        string             `json:"room"`
			Players     []types.PlayerInfo `json:"players"`
			CurrentTurn int                `json:"currentTurn"`
			History     []types.RollInfo   `json:"history"`
			Chicken     string             `json:"chickenPlayer,omitempty"`
		}{
			Room:        name,
			Players:     players,
			CurrentTurn: v.CurrentTurn,
			History:     history,
			Chicken:     chicken,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
