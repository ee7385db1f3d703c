package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nexacrm/crm-backend/internal/replysync"
)

// JobRunner runs one reply reconciliation pass
type JobRunner interface {
	Run(ctx context.Context) (*replysync.Summary, error)
}

// ReplyJobHandler triggers the reply reconciliation job over HTTP
type ReplyJobHandler struct {
	job JobRunner
}

// NewReplyJobHandler creates a new ReplyJobHandler
func NewReplyJobHandler(job JobRunner) *ReplyJobHandler {
	return &ReplyJobHandler{job: job}
}

// jobResult is the summary with the success flag folded in, matching the
// shape callers of the trigger endpoint expect.
type jobResult struct {
	Success bool `json:"success"`
	*replysync.Summary
}

// Run handles any method on /api/jobs/check-email-replies. The job executes
// synchronously and the run summary is returned as the response body.
// OPTIONS never reaches here; the CORS middleware answers preflights.
func (h *ReplyJobHandler) Run(c echo.Context) error {
	if h.job == nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Azure authentication failed",
		})
	}

	summary, err := h.job.Run(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, jobResult{
		Success: true,
		Summary: summary,
	})
}
