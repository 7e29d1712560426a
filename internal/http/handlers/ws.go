package handlers

import (
	"net/http"
	"os"

	"parlor/internal/game"
	"parlor/internal/logger"
	"parlor/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades the connection and hands it to the matchmaking hub. The game
// type comes from the path; unknown types are rejected before the upgrade.
func (h *Handler) WS(hub *ws.Hub) gin.HandlerFunc {
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		gameID := c.Param("game_id")
		if _, ok := game.Lookup(gameID); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown game type"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "err", err)
			return
		}

		client := ws.NewClient(conn, hub, gameID)
		go client.Run()
	}
}
