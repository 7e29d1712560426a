package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parlor/internal/domain"
	"parlor/internal/logger"
	"parlor/internal/repository"

	"github.com/gin-gonic/gin"
)

// Solo save/load and meta-progression endpoints. These back the
// single-player client and sit apart from the realtime hub.

type saveRunRequest struct {
	RunID    string          `json:"run_id"`
	Username string          `json:"username"`
	State    json.RawMessage `json:"state"`
}

// SaveRun upserts a run save slot.
func (h *Handler) SaveRun(c *gin.Context) {
	var req saveRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RunID == "" || len(req.State) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id and state required"})
		return
	}

	if err := h.RunRepo.Save(c.Request.Context(), req.RunID, req.Username, req.State); err != nil {
		logger.Error("save run failed", "run_id", req.RunID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LoadRun returns the raw saved state for a run id.
func (h *Handler) LoadRun(c *gin.Context) {
	runID := c.Param("run_id")

	state, err := h.RunRepo.Load(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		logger.Error("load run failed", "run_id", runID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", state)
}

// DeleteRun removes a save slot.
func (h *Handler) DeleteRun(c *gin.Context) {
	runID := c.Param("run_id")

	deleted, err := h.RunRepo.Delete(c.Request.Context(), runID)
	if err != nil {
		logger.Error("delete run failed", "run_id", runID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RecentUser returns the most recently active username, or null.
func (h *Handler) RecentUser(c *gin.Context) {
	username, err := h.RunRepo.RecentUser(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"username": nil})
			return
		}
		logger.Error("recent user lookup failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if username == "" {
		c.JSON(http.StatusOK, gin.H{"username": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// UserRun returns a user's active run, or nulls when none exists.
func (h *Handler) UserRun(c *gin.Context) {
	username := c.Param("username")

	runID, state, err := h.RunRepo.ActiveRunForUser(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"runId": nil, "state": nil})
			return
		}
		logger.Error("user run lookup failed", "username", username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": runID, "state": json.RawMessage(state)})
}

// Meta returns a user's meta-progression state, creating the profile on
// first sight.
func (h *Handler) Meta(c *gin.Context) {
	username := c.Param("username")

	state, err := h.metaState(c, username)
	if err != nil {
		logger.Error("meta state lookup failed", "username", username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, state)
}

type purchaseRequest struct {
	Username string `json:"username"`
	TrackID  string `json:"trackId"`
	Tier     *int   `json:"tier"`
	Cost     *int   `json:"cost"`
}

// Purchase spends tickets on an unlock tier and returns the updated meta
// state. Insufficient balance and repeat purchases are both a 400.
func (h *Handler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Username == "" || req.TrackID == "" || req.Tier == nil || req.Cost == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, trackId, tier, and cost required"})
		return
	}

	err := h.MetaRepo.PurchaseUnlock(c.Request.Context(), req.Username, req.TrackID, *req.Tier, *req.Cost)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientTickets) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient tickets or already unlocked"})
			return
		}
		logger.Error("purchase failed", "username", req.Username, "track", req.TrackID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purchase failed"})
		return
	}

	state, err := h.metaState(c, req.Username)
	if err != nil {
		logger.Error("meta state lookup failed", "username", req.Username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, state)
}

type endRunRequest struct {
	Username        string           `json:"username"`
	TicketsEarned   int              `json:"ticketsEarned"`
	NewAchievements []string         `json:"newAchievements"`
	RunData         domain.RunResult `json:"runData"`
}

// EndRun records a finished run: achievements, ticket rewards and the
// history row, then returns the updated meta state.
func (h *Handler) EndRun(c *gin.Context) {
	var req endRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if err := h.MetaRepo.EnsureProfile(ctx, req.Username); err != nil {
		logger.Error("ensure profile failed", "username", req.Username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "end run failed"})
		return
	}

	for _, achID := range req.NewAchievements {
		if err := h.MetaRepo.RecordAchievement(ctx, req.Username, achID); err != nil {
			logger.Error("record achievement failed", "username", req.Username, "achievement", achID, "err", err)
		}
	}

	if req.TicketsEarned > 0 {
		if _, err := h.MetaRepo.AddTickets(ctx, req.Username, req.TicketsEarned); err != nil {
			logger.Error("add tickets failed", "username", req.Username, "err", err)
		}
	}

	if err := h.MetaRepo.RecordRun(ctx, req.Username, req.RunData); err != nil {
		logger.Error("record run failed", "username", req.Username, "err", err)
	}

	state, err := h.metaState(c, req.Username)
	if err != nil {
		logger.Error("meta state lookup failed", "username", req.Username, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) metaState(c *gin.Context, username string) (*domain.MetaState, error) {
	ctx := c.Request.Context()
	if err := h.MetaRepo.EnsureProfile(ctx, username); err != nil {
		return nil, err
	}
	return h.MetaRepo.GetMetaState(ctx, username)
}
