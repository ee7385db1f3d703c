package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// defaultDevOrigin is used when no origins are configured, so a local CRM
// frontend works out of the box.
const defaultDevOrigin = "http://localhost:3000"

// SecureCORS returns CORS middleware for the CRM API. Origins come from the
// ALLOWED_ORIGINS environment variable; the wildcard origin is stripped in
// production so browser credentials never leak cross-site.
func SecureCORS() echo.MiddlewareFunc {
	origins := allowedOrigins(os.Getenv("ALLOWED_ORIGINS"), os.Getenv("APP_ENV"))

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// allowedOrigins parses the comma-separated origin list. Blank entries are
// dropped; in production so is "*". An empty result falls back to the
// development default.
func allowedOrigins(raw, env string) []string {
	parsed := make([]string, 0, 4)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" && env == "production" {
			continue
		}
		parsed = append(parsed, origin)
	}

	if len(parsed) == 0 {
		return []string{defaultDevOrigin}
	}
	return parsed
}
