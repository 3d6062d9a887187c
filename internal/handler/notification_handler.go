package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/service/notification"
)

type NotificationHandler struct {
	service *notification.Service
}

func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterRoutes mounts the notification API under group.
func (h *NotificationHandler) RegisterRoutes(group gin.IRouter) {
	users := group.Group("/users/:userId/notifications")
	users.POST("/schedule", h.HandleSchedule)
	users.GET("", h.HandleList)
	users.DELETE("", h.HandleCancelByType)
	users.DELETE("/all", h.HandleCancelAll)
	users.DELETE("/:sourceId", h.HandleCancelByIdentity)
}

func (h *NotificationHandler) HandleSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "request unmarshal failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	// Undecodable descriptors stay in the batch as nil so they are reported
	// as failed items at their own index.
	descriptors := make([]*domain.NotificationDescriptor, len(req.Descriptors))
	rejected := make(map[int]error)
	for i, r := range req.Descriptors {
		d, err := r.toDomain()
		if err != nil {
			slog.WarnContext(ctx, "invalid descriptor",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			rejected[i] = err
			continue
		}
		descriptors[i] = d
	}

	result, err := h.service.Schedule(ctx, userID, descriptors)
	if err != nil {
		switch {
		case errors.Is(err, notification.ErrEmptyBatch):
			respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, domain.ErrProfileNotFound):
			respondError(c, http.StatusNotFound, "profile_not_found", err.Error())
		default:
			respondError(c, http.StatusBadGateway, "profile_error", "failed to resolve user profile")
		}
		return
	}

	for i, err := range rejected {
		result.Results[i].Category = domain.Category(req.Descriptors[i].Category)
		result.Results[i].Error = err.Error()
	}

	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) HandleList(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	active, err := h.service.ListActive(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list notifications",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to list notifications")
		return
	}

	resp := ListResponse{
		UserID:        userID,
		Notifications: make([]NotificationView, 0, len(active)),
	}
	for _, a := range active {
		resp.Notifications = append(resp.Notifications, toNotificationView(a))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) HandleCancelByType(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "category query parameter is required")
		return
	}

	n, err := h.service.CancelByType(c.Request.Context(), c.Param("userId"), domain.Category(category))
	if err != nil && errors.Is(err, domain.ErrInvalidDescriptor) {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	respondCancel(c, n, err)
}

func (h *NotificationHandler) HandleCancelAll(c *gin.Context) {
	n, err := h.service.CancelAll(c.Request.Context(), c.Param("userId"))
	respondCancel(c, n, err)
}

func (h *NotificationHandler) HandleCancelByIdentity(c *gin.Context) {
	n, err := h.service.CancelByIdentity(c.Request.Context(), c.Param("userId"), c.Param("sourceId"))
	respondCancel(c, n, err)
}

// respondCancel reports partial cancellations with the count of what did succeed.
func respondCancel(c *gin.Context, n int, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":           "processing_error",
			"message":         err.Error(),
			"cancelled_count": n,
		})
		return
	}
	c.JSON(http.StatusOK, CancelResponse{CancelledCount: n})
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
	})
}
