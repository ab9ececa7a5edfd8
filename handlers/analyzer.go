package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"news-detector/models"
	"news-detector/services"
	"news-detector/session"
)

// maxBodyBytes bounds POST /api/analyze bodies.
const maxBodyBytes = 1 << 20

// validSessionID accepts only the UUIDs this API hands out, so HTTP
// clients cannot address sessions owned by other front ends.
func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type AnalyzerHandler struct {
	sessions *session.Manager
	paused   *atomic.Bool
}

func NewAnalyzerHandler(sessions *session.Manager, paused *atomic.Bool) *AnalyzerHandler {
	return &AnalyzerHandler{sessions: sessions, paused: paused}
}

type analyzeRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
}

// toAnalysisRequest picks the mode the way the widget's tabs do: a URL wins
// when both are filled in.
func (r analyzeRequest) toAnalysisRequest() (models.AnalysisRequest, bool) {
	if u := strings.TrimSpace(r.URL); u != "" {
		return models.AnalysisRequest{Mode: models.ModeURL, Content: u}, true
	}
	if strings.TrimSpace(r.Text) != "" {
		return models.AnalysisRequest{Mode: models.ModeText, Content: r.Text}, true
	}
	return models.AnalysisRequest{}, false
}

// Analyze handles POST /api/analyze. It returns the session snapshot once the
// call has resolved; a failed analysis is still a 200 whose outcome carries
// the generic error.
func (h *AnalyzerHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.paused.Load() {
		writeError(w, http.StatusServiceUnavailable, "analysis is paused, try again later")
		return
	}

	var body analyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, ok := body.toAnalysisRequest()
	if !ok {
		writeError(w, http.StatusBadRequest, "either 'text' or 'url' is required")
		return
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	} else if !validSessionID(sessionID) {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}
	log.Printf("[HANDLER] analyze %s for session %s from %s", req.Mode, sessionID, r.RemoteAddr)

	snap, err := h.sessions.Run(r.Context(), sessionID, req)
	switch {
	case errors.Is(err, session.ErrPending), errors.Is(err, session.ErrStale):
		writeJSON(w, http.StatusConflict, snap)
	case err != nil:
		log.Printf("[HANDLER] session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, models.FailureMessage)
	default:
		log.Printf("[HANDLER] session %s %s in %v", sessionID, snap.State, time.Since(start))
		writeJSON(w, http.StatusOK, snap)
	}
}

// GetSession handles GET /api/session/{id}.
func (h *AnalyzerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validSessionID(id) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	snap, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("[HANDLER] get session: %v", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ResetSession handles DELETE /api/session/{id}.
func (h *AnalyzerHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validSessionID(id) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	snap, err := h.sessions.Reset(r.Context(), id)
	if err != nil {
		log.Printf("[HANDLER] reset session: %v", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *AnalyzerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Limits handles GET /api/limits.
func (h *AnalyzerHandler) Limits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.GetRateLimits())
}
