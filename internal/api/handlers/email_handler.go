package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nexacrm/crm-backend/internal/api/response"
	"github.com/nexacrm/crm-backend/internal/repository"
	"github.com/nexacrm/crm-backend/internal/validator"
)

// EmailHandler handles sent-email HTTP requests
type EmailHandler struct {
	historyRepo repository.EmailHistoryRepository
	replyRepo   repository.ReplyRepository
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(historyRepo repository.EmailHistoryRepository, replyRepo repository.ReplyRepository) *EmailHandler {
	return &EmailHandler{
		historyRepo: historyRepo,
		replyRepo:   replyRepo,
	}
}

// Get handles GET /api/emails/:id
func (h *EmailHandler) Get(c echo.Context) error {
	id := c.Param("id")

	email, err := h.historyRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to get email")
	}

	return response.Success(c, email)
}

// ListReplies handles GET /api/emails/:id/replies
func (h *EmailHandler) ListReplies(c echo.Context) error {
	id := c.Param("id")

	// Verify the sent email exists
	_, err := h.historyRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to get email")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = validator.ValidatePagination(limit, offset)

	replies, total, err := h.replyRepo.ListByEmailHistory(c.Request().Context(), id, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list replies")
	}

	return response.Paginated(c, replies, total, limit, offset)
}
