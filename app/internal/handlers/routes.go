package handlers

import (
	"net/http"

	"pulse/app/internal/auth"
	"pulse/app/internal/heartbeat"
	"pulse/app/internal/security"
)

// SetupRoutes configures all HTTP routes and middlewares
func SetupRoutes(authority *auth.Authority, ing *heartbeat.Ingestor) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/agents/heartbeat", authority.RequireWrite(HandleHeartbeat(ing)))
	api.HandleFunc("/api/agents/uptime", authority.RequireRead(HandleUptimeSummary()))
	api.HandleFunc("/api/agents/uptime/timeseries", authority.RequireRead(HandleUptimeTimeseries()))

	// 1 token/sec per IP with a burst of 60.
	limiter := security.NewLimiter(1, 60)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", HandleHealthz())
	mux.Handle("/api/", limiter.Middleware(api))

	return mux
}

// HandleHealthz is the unauthenticated liveness probe.
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}
