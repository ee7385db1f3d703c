package websocket

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

const wsBufferSize = 1024

// NewSecureUpgrader creates an upgrader that only accepts connections from
// the origins listed in ALLOWED_ORIGINS. Requests without an Origin header
// (non-browser clients, same-origin) are accepted.
func NewSecureUpgrader(logger *slog.Logger) websocket.Upgrader {
	allowed := allowedOriginSet(os.Getenv("ALLOWED_ORIGINS"))

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			if _, ok := allowed[origin]; ok {
				return true
			}

			if logger != nil {
				logger.Warn("rejected websocket connection",
					slog.String("origin", origin),
					slog.String("remote_ip", r.RemoteAddr))
			}
			return false
		},
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
	}
}

// allowedOriginSet parses the comma-separated origin list into a lookup set.
// Blank entries are dropped; an empty list falls back to the local frontend.
func allowedOriginSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			set[origin] = struct{}{}
		}
	}

	if len(set) == 0 {
		set["http://localhost:3000"] = struct{}{}
	}
	return set
}

// DefaultUpgrader accepts every origin. Development only.
func DefaultUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
	}
}
