package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler/server"
)

type SweepHandler struct {
	sweeper *server.Sweeper
}

func NewSweepHandler(sweeper *server.Sweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// HandleSweep runs one sweep immediately. Deliveries are still guarded by the
// per-record claim, so this is safe alongside the periodic loop.
func (h *SweepHandler) HandleSweep(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.sweeper.Sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "manual sweep failed",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "sweep failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
