package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/biskitgame/biskit-backend/internal/hub"
	"github.com/biskitgame/biskit-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, origins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, origins, log))
	r.Get("/rooms/{name}", RoomSnapshot(h))
	return r
}
