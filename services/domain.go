package services

import (
	"context"
	"log"
	"net/url"
	"strings"

	"news-detector/database"
)

// NormalizeDomain extracts host from a URL and strips www. prefix and port.
func NormalizeDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// UpsertDomainStats folds one score into the domain's running average. It
// stores aggregates only, never the analysis itself.
func UpsertDomainStats(ctx context.Context, rawURL string, score int) {
	if database.DB == nil {
		return
	}
	domain := NormalizeDomain(rawURL)
	if domain == "" {
		return
	}
	_, err := database.DB.ExecContext(ctx, `
		INSERT INTO domain_stats (domain, total_analyses, sum_scores, avg_score, last_analyzed_at)
		VALUES ($1, 1, $2::INTEGER, $2::FLOAT, NOW())
		ON CONFLICT (domain) DO UPDATE SET
			total_analyses   = domain_stats.total_analyses + 1,
			sum_scores       = domain_stats.sum_scores + $2::INTEGER,
			avg_score        = (domain_stats.sum_scores + $2)::float / (domain_stats.total_analyses + 1),
			last_analyzed_at = NOW()
	`, domain, score)
	if err != nil {
		log.Printf("[DOMAIN] failed to update stats for %s: %v", domain, err)
	} else {
		log.Printf("[DOMAIN] stats updated: %s score=%d", domain, score)
	}
}
