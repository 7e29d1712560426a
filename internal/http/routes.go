package http

import (
	"parlor/internal/config"
	"parlor/internal/http/handlers"
	"parlor/internal/http/middleware"
	"parlor/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the REST surface, the websocket endpoint and static
// assets. db may be nil; the solo persistence routes are skipped then.
func RegisterRoutes(r *gin.Engine, hub *ws.Hub, db *pgxpool.Pool, cfg *config.Config, version string) {
	h := handlers.NewHandler(db)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	v1.GET("/games", h.Games)

	if db != nil {
		cc := v1.Group("/curtain-call")
		cc.POST("/save", h.SaveRun)
		cc.GET("/load/:run_id", h.LoadRun)
		cc.DELETE("/run/:run_id", h.DeleteRun)
		cc.GET("/recent-user", h.RecentUser)
		cc.GET("/user-run/:username", h.UserRun)
		cc.GET("/meta/:username", h.Meta)
		cc.POST("/meta/purchase", h.Purchase)
		cc.POST("/meta/end-run", h.EndRun)
	}

	// WebSocket for matches
	r.GET("/ws/game/:game_id", h.WS(hub))
}
