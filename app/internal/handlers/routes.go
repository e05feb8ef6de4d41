package handlers

import (
	"net"
	"net/http"

	"linkwatch/app/internal/actions"
	"linkwatch/app/internal/auth"
	"linkwatch/app/internal/config"
	"linkwatch/app/internal/history"
	"linkwatch/app/internal/monitor"
	"linkwatch/app/internal/ratelimit"
	"linkwatch/app/internal/scenes"
)

// SetupRoutes configures all HTTP routes and middlewares. The limiter is
// owned by the caller, which stops its cleanup goroutine on shutdown.
func SetupRoutes(authMgr *auth.Auth, loop *monitor.Loop, sc *scenes.Client, hist *history.Store, tbl *actions.Table, cfg *config.Config, limiter *ratelimit.Limiter) http.Handler {
	// Public API routes
	api := http.NewServeMux()
	api.HandleFunc("/api/status", HandleStatus(loop, sc, cfg))
	api.HandleFunc("/api/history", HandleHistory(hist))

	// Admin API routes (bearer token)
	authAPI := http.NewServeMux()
	authAPI.HandleFunc("/api/admin/monitor/start", authMgr.RequireAuth(HandleStartMonitor(loop)))
	authAPI.HandleFunc("/api/admin/monitor/stop", authMgr.RequireAuth(HandleStopMonitor(loop)))
	authAPI.HandleFunc("/api/admin/probe", authMgr.RequireAuth(HandleProbeNow(loop)))
	authAPI.HandleFunc("/api/admin/action", authMgr.RequireAuth(HandleAction(tbl)))
	authAPI.HandleFunc("/api/admin/actions", authMgr.RequireAuth(HandleListActions(tbl)))

	mux := http.NewServeMux()
	mux.Handle("/api/admin/", rateLimit(limiter, authAPI))
	mux.Handle("/api/", rateLimit(limiter, api))
	return mux
}

// rateLimit applies the token bucket limiter keyed by client IP.
func rateLimit(l *ratelimit.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !l.Allow(key) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
