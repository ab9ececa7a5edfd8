package handlers

import (
	"net/http"
	"sync/atomic"

	"news-detector/session"
)

func NewRouter(sessions *session.Manager, adminToken string) http.Handler {
	paused := new(atomic.Bool)
	analyzer := NewAnalyzerHandler(sessions, paused)
	domains := NewDomainHandler()
	admin := NewAdminHandler(adminToken, paused)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", analyzer.Analyze)
	mux.HandleFunc("GET /api/session/{id}", analyzer.GetSession)
	mux.HandleFunc("DELETE /api/session/{id}", analyzer.ResetSession)
	mux.HandleFunc("GET /api/session/{id}/ws", SessionFeed(sessions))
	mux.HandleFunc("GET /api/health", analyzer.Health)
	mux.HandleFunc("GET /api/limits", analyzer.Limits)
	mux.HandleFunc("GET /api/domain/{domain}", domains.GetDomain)
	mux.HandleFunc("GET /api/domains/top", domains.GetTopDomains)
	mux.HandleFunc("GET /api/admin/logs", admin.AuthMiddleware(admin.StreamLogs))
	mux.HandleFunc("POST /api/admin/pause", admin.AuthMiddleware(admin.Pause))
	mux.HandleFunc("POST /api/admin/resume", admin.AuthMiddleware(admin.Resume))
	mux.HandleFunc("GET /api/admin/status", admin.AuthMiddleware(admin.GetStatus))
	mux.HandleFunc("GET /api/admin/stats", admin.AuthMiddleware(admin.GetStats))

	return CORS(mux)
}
