package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ServiceName identifies this backend in health payloads
const ServiceName = "crm-backend"

// HealthHandler reports liveness and readiness of the CRM backend
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Service  string            `json:"service"`
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// dbReachable pings the underlying connection
func (h *HealthHandler) dbReachable() bool {
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	status := "healthy"
	services := map[string]string{"database": "healthy"}

	if !h.dbReachable() {
		status = "unhealthy"
		services["database"] = "unhealthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Service:  ServiceName,
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready. The server is ready once the database answers;
// the reply sync pipeline degrades on its own and does not gate readiness.
func (h *HealthHandler) Ready(c echo.Context) error {
	if !h.dbReachable() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
