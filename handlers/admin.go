package handlers

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"news-detector/database"
	"news-detector/logger"
	"news-detector/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the widget may be embedded on any origin
	},
}

const writeWait = 10 * time.Second

// watchClose returns a channel closed once the peer goes away. Incoming
// messages are ignored.
func watchClose(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}

type AdminHandler struct {
	token  string
	paused *atomic.Bool
}

// NewAdminHandler returns the admin endpoints. paused is shared with the
// analyze handler.
func NewAdminHandler(token string, paused *atomic.Bool) *AdminHandler {
	return &AdminHandler{token: token, paused: paused}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	token := r.Header.Get("X-Admin-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return h.token != "" && token == h.token
}

// AuthMiddleware rejects requests without the admin token.
func (h *AdminHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.paused.Store(true)
	log.Println("[ADMIN] analysis paused")
	h.GetStatus(w, r)
}

func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.paused.Store(false)
	log.Println("[ADMIN] analysis resumed")
	h.GetStatus(w, r)
}

func (h *AdminHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"is_paused": h.paused.Load()})
}

type AdminStats struct {
	TotalAnalyses int     `json:"total_analyses"`
	AverageScore  float64 `json:"average_score"`
	Domains       int     `json:"domains"`
}

// GetStats sums the per-domain counters. Text-mode analyses have no domain
// and are not counted.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	var stats AdminStats
	err := database.DB.QueryRowContext(r.Context(), `
		SELECT COALESCE(SUM(total_analyses), 0),
		       COALESCE(SUM(sum_scores)::float / NULLIF(SUM(total_analyses), 0), 0),
		       COUNT(*)
		FROM domain_stats
	`).Scan(&stats.TotalAnalyses, &stats.AverageScore, &stats.Domains)
	if err != nil {
		log.Printf("[ADMIN] stats query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// StreamLogs handles GET /api/admin/logs?token=... and pushes every log line
// over a websocket. Browsers cannot set headers on websocket requests, so
// the token may come in the query string.
func (h *AdminHandler) StreamLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ADMIN] websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	lines := logger.Instance.Subscribe()
	defer logger.Instance.Unsubscribe(lines)

	done := watchClose(conn)
	for {
		select {
		case msg := <-lines:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// SessionFeed handles GET /api/session/{id}/ws. It sends the current
// snapshot on connect and then one message per transition.
func SessionFeed(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validSessionID(id) {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		updates, unsubscribe := sessions.Hub().Subscribe(id)
		defer unsubscribe()

		current, err := sessions.Get(r.Context(), id)
		if err != nil {
			current = session.NewSnapshot(id, time.Now())
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(current); err != nil {
			return
		}

		done := watchClose(conn)
		for {
			select {
			case snap := <-updates:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
