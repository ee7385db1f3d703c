package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nexacrm/crm-backend/internal/api/response"
	"github.com/nexacrm/crm-backend/internal/repository"
	"github.com/nexacrm/crm-backend/internal/validator"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// ListByUser handles GET /api/users/:user_id/notifications
func (h *NotificationHandler) ListByUser(c echo.Context) error {
	userID := c.Param("user_id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = validator.ValidatePagination(limit, offset)

	notifications, total, err := h.notificationRepo.ListByUser(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list notifications")
	}

	return response.Paginated(c, notifications, total, limit, offset)
}

// UnreadCount handles GET /api/users/:user_id/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID := c.Param("user_id")

	count, err := h.notificationRepo.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return response.InternalError(c, "failed to count unread notifications")
	}

	return response.Success(c, map[string]int64{"unread": count})
}

// MarkRead handles PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id := c.Param("id")

	if err := h.notificationRepo.MarkRead(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "notification not found")
		}
		return response.InternalError(c, "failed to mark notification as read")
	}

	return response.SuccessWithMessage(c, nil, "notification marked as read")
}
