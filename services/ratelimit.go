package services

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitInfo holds the latest rate limit headers seen from one provider.
// The service never throttles itself on these; they are exposed for
// operators via /api/limits.
type RateLimitInfo struct {
	Provider string `json:"provider"`

	LimitRequests     int    `json:"limit_requests"`
	RemainingRequests int    `json:"remaining_requests"`
	ResetRequests     string `json:"reset_requests"`
	ResetRequestsAt   *int64 `json:"reset_requests_at"` // unix ms, if parseable

	LimitTokens     int    `json:"limit_tokens"`
	RemainingTokens int    `json:"remaining_tokens"`
	ResetTokens     string `json:"reset_tokens"`
	ResetTokensAt   *int64 `json:"reset_tokens_at"`

	Throttled  bool   `json:"throttled"`
	StatusCode int    `json:"status_code"`
	UpdatedAt  int64  `json:"updated_at"`
	UpdatedAgo string `json:"updated_ago"`
}

var (
	rlMu    sync.RWMutex
	rlStore = map[string]*RateLimitInfo{}
)

// header names differ between Anthropic and the OpenAI-style providers
type rateLimitHeaders struct {
	limitRequests, remainingRequests, resetRequests string
	limitTokens, remainingTokens, resetTokens       string
}

var (
	anthropicHeaders = rateLimitHeaders{
		"Anthropic-Ratelimit-Requests-Limit", "Anthropic-Ratelimit-Requests-Remaining", "Anthropic-Ratelimit-Requests-Reset",
		"Anthropic-Ratelimit-Tokens-Limit", "Anthropic-Ratelimit-Tokens-Remaining", "Anthropic-Ratelimit-Tokens-Reset",
	}
	openAIHeaders = rateLimitHeaders{
		"X-Ratelimit-Limit-Requests", "X-Ratelimit-Remaining-Requests", "X-Ratelimit-Reset-Requests",
		"X-Ratelimit-Limit-Tokens", "X-Ratelimit-Remaining-Tokens", "X-Ratelimit-Reset-Tokens",
	}
)

// UpdateRateLimit reads rate-limit headers from a provider response.
func UpdateRateLimit(provider string, resp *http.Response) {
	if resp == nil {
		return
	}

	h := openAIHeaders
	if provider == "anthropic" {
		h = anthropicHeaders
	}

	now := time.Now()
	info := &RateLimitInfo{
		Provider:          provider,
		StatusCode:        resp.StatusCode,
		Throttled:         resp.StatusCode == http.StatusTooManyRequests,
		UpdatedAt:         now.UnixMilli(),
		LimitRequests:     headerInt(resp, h.limitRequests),
		RemainingRequests: headerInt(resp, h.remainingRequests),
		ResetRequests:     resp.Header.Get(h.resetRequests),
		LimitTokens:       headerInt(resp, h.limitTokens),
		RemainingTokens:   headerInt(resp, h.remainingTokens),
		ResetTokens:       resp.Header.Get(h.resetTokens),
	}
	info.ResetRequestsAt = parseReset(info.ResetRequests, now)
	info.ResetTokensAt = parseReset(info.ResetTokens, now)

	rlMu.Lock()
	rlStore[provider] = info
	rlMu.Unlock()
}

// parseReset accepts both an RFC 3339 instant (Anthropic) and a relative
// duration such as "6m0s" (OpenAI-style).
func parseReset(v string, now time.Time) *int64 {
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		ms := t.UnixMilli()
		return &ms
	}
	if d, err := time.ParseDuration(v); err == nil {
		ms := now.Add(d).UnixMilli()
		return &ms
	}
	return nil
}

// GetRateLimits returns a snapshot of all stored rate limit info.
func GetRateLimits() map[string]*RateLimitInfo {
	rlMu.RLock()
	defer rlMu.RUnlock()

	out := map[string]*RateLimitInfo{}
	now := time.Now()
	for k, v := range rlStore {
		cp := *v
		ago := now.Sub(time.UnixMilli(v.UpdatedAt))
		if ago < time.Minute {
			cp.UpdatedAgo = strconv.Itoa(int(ago.Seconds())) + "s ago"
		} else {
			cp.UpdatedAgo = strconv.Itoa(int(ago.Minutes())) + "m ago"
		}
		out[k] = &cp
	}
	return out
}

func headerInt(resp *http.Response, key string) int {
	v := resp.Header.Get(key)
	if v == "" {
		return -1 // not provided by the API
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
