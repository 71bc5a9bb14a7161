package router

import (
	"net/http"
	"strings"

	"github.com/radityaferdi/otpgate/internal/pkg/config"
)

// middlewareMaintenance returns 503 for routes listed under
// app.maintenance.endpoints, so OTP issuance can be paused by config
// (for example during an SMS gateway incident) without a deploy.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := make(map[string]struct{})
	if cfg != nil {
		for _, route := range cfg.GetArray("app.maintenance.endpoints") {
			if route = strings.TrimSpace(route); route != "" {
				blocked[route] = struct{}{}
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, down := blocked[matchedRoutePath(r)]; down {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
