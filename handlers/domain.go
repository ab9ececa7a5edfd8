package handlers

import (
	"log"
	"net/http"
	"time"

	"news-detector/database"
	"news-detector/services"
)

type DomainHandler struct{}

func NewDomainHandler() *DomainHandler { return &DomainHandler{} }

type DomainStats struct {
	Domain         string    `json:"domain"`
	TotalAnalyses  int       `json:"total_analyses"`
	AvgScore       float64   `json:"avg_score"`
	Verdict        string    `json:"verdict"`
	LastAnalyzedAt time.Time `json:"last_analyzed_at"`
}

// verdictFromScore uses the same bands the result view colors by.
func verdictFromScore(avg float64) string {
	switch {
	case avg > 70:
		return "reliable"
	case avg > 40:
		return "questionable"
	default:
		return "unreliable"
	}
}

// GetDomain handles GET /api/domain/{domain}.
func (h *DomainHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	domain := services.NormalizeDomain("https://" + r.PathValue("domain"))
	if domain == "" || database.DB == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	var s DomainStats
	err := database.DB.QueryRowContext(r.Context(), `
		SELECT domain, total_analyses, avg_score, last_analyzed_at
		FROM domain_stats WHERE domain = $1
	`, domain).Scan(&s.Domain, &s.TotalAnalyses, &s.AvgScore, &s.LastAnalyzedAt)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "domain not found"})
		return
	}
	s.Verdict = verdictFromScore(s.AvgScore)
	writeJSON(w, http.StatusOK, s)
}

// GetTopDomains handles GET /api/domains/top.
func (h *DomainHandler) GetTopDomains(w http.ResponseWriter, r *http.Request) {
	if database.DB == nil {
		writeJSON(w, http.StatusOK, []DomainStats{})
		return
	}

	rows, err := database.DB.QueryContext(r.Context(), `
		SELECT domain, total_analyses, avg_score, last_analyzed_at
		FROM domain_stats
		ORDER BY total_analyses DESC
		LIMIT 20
	`)
	if err != nil {
		log.Printf("[DOMAIN] top query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
		return
	}
	defer rows.Close()

	list := []DomainStats{}
	for rows.Next() {
		var s DomainStats
		if err := rows.Scan(&s.Domain, &s.TotalAnalyses, &s.AvgScore, &s.LastAnalyzedAt); err != nil {
			log.Printf("[DOMAIN] scan failed: %v", err)
			continue
		}
		s.Verdict = verdictFromScore(s.AvgScore)
		list = append(list, s)
	}
	writeJSON(w, http.StatusOK, list)
}
