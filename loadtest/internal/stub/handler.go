package stub

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	storage *Storage
}

func NewHandler(storage *Storage) *Handler {
	return &Handler{storage: storage}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/reset", h.HandleReset)
	r.POST("/seed", h.HandleSeed)
	r.GET("/stats", h.HandleStats)
	r.GET("/api/v1/users/:userId/profile", h.HandleGetProfile)
	r.POST("/push/send", h.HandlePush)
}

func (h *Handler) HandleReset(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")

	if runID == "all" {
		h.storage.ResetAll()
	} else {
		h.storage.Reset(runID)
	}

	slog.Info("reset data", slog.String("run_id", runID))

	c.JSON(http.StatusOK, gin.H{
		"status": "reset complete",
		"run_id": runID,
	})
}

func (h *Handler) HandleSeed(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userIDs := make([]string, 0)
	for _, g := range req.Groups {
		if g.Timezone == "" {
			g.Timezone = "UTC"
		}
		userIDs = append(userIDs, h.storage.Seed(runID, g)...)
	}

	slog.Info("seeded profiles",
		slog.String("run_id", runID),
		slog.Int("group_count", len(req.Groups)),
		slog.Int("user_count", len(userIDs)),
	)

	c.JSON(http.StatusOK, gin.H{
		"status":   "seeded",
		"run_id":   runID,
		"user_ids": userIDs,
	})
}

// GET /api/v1/users/:userId/profile
func (h *Handler) HandleGetProfile(c *gin.Context) {
	userID := c.Param("userId")

	p, ok := h.storage.Profile(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// POST /push/send mimics the Expo push API's single-message response.
func (h *Handler) HandlePush(c *gin.Context) {
	var req ExpoPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.storage.RecordPush(req.To, req.Data["handle"]) {
		c.JSON(http.StatusOK, ExpoPushResponse{Data: ExpoTicket{
			Status:  "error",
			Message: "\"" + req.To + "\" is not a registered push notification recipient",
			Details: map[string]string{"error": "DeviceNotRegistered"},
		}})
		return
	}

	slog.Debug("push received",
		slog.String("handle", req.Data["handle"]),
		slog.String("slot", req.Data["slot"]),
	)

	c.JSON(http.StatusOK, ExpoPushResponse{Data: ExpoTicket{
		Status: "ok",
		ID:     uuid.NewString(),
	}})
}

func (h *Handler) HandleStats(c *gin.Context) {
	runID := c.DefaultQuery("run_id", "default")
	c.JSON(http.StatusOK, h.storage.Stats(runID))
}
