package handlers

import (
	"net/http"

	"parlor/internal/game"

	"github.com/gin-gonic/gin"
)

// Games lists the playable game types and their player limits.
func (h *Handler) Games(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": game.List()})
}
