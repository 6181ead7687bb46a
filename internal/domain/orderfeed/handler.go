package orderfeed

import (
	"net/http"

	"taskhub/internal/middleware"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHandler allows browser origins listed in origins; an empty list keeps
// gorilla's same-origin check.
func NewHandler(hub *Hub, origins []string, log *logger.Logger) *Handler {
	h := &Handler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(origins) > 0 {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
	return h
}

// Feed handles GET /api/v1/orders/feed (WebSocket, ?token= accepted)
func (h *Handler) Feed(c *gin.Context) {
	if !c.IsWebsocket() {
		response.Error(c, http.StatusBadRequest, "WEBSOCKET_REQUIRED", "Expected a WebSocket upgrade")
		return
	}

	actor := middleware.ActorFrom(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("order feed upgrade failed", "user_id", actor.UserID, "error", err)
		return
	}

	h.log.Info("order feed connected", "user_id", actor.UserID)
	h.hub.serve(conn, actor.Email)
	h.log.Info("order feed disconnected", "user_id", actor.UserID)
}

// RegisterRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders/feed", middleware.TaskerOnly(), h.Feed)
}
