package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-detector/models"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var got struct {
		header http.Header
		body   map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &got.body))

		w.Header().Set("Anthropic-Ratelimit-Requests-Remaining", "49")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","content":[{"type":"text","text":"{\"verdict\":\"Real\"}"}]}`))
	}))
	defer srv.Close()

	builder := NewRequestBuilder(srv.URL, "claude-sonnet-4-20250514", 1000)
	call := builder.Build(models.AnalysisRequest{Mode: models.ModeText, Content: "hello"})

	resp, err := NewAnthropicClient("sk-test", 5*time.Second).Complete(context.Background(), call)
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "2023-06-01", got.header.Get("anthropic-version"))
	assert.Equal(t, "sk-test", got.header.Get("x-api-key"))

	assert.Equal(t, "claude-sonnet-4-20250514", got.body["model"])
	assert.EqualValues(t, 1000, got.body["max_tokens"])
	assert.NotContains(t, got.body, "Endpoint")
	messages, ok := got.body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])

	require.Len(t, resp.Content, 1)
	assert.Equal(t, SegmentText, resp.Content[0].Type)
	assert.Equal(t, `{"verdict":"Real"}`, resp.Content[0].Text)

	limits := GetRateLimits()
	require.Contains(t, limits, "anthropic")
	assert.Equal(t, 49, limits["anthropic"].RemainingRequests)
}

func TestAnthropicClient_NoKeyOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicClient("", time.Second).Complete(context.Background(), OutboundCall{Endpoint: srv.URL})
	require.NoError(t, err)
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		substr string
	}{
		{"api error", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, ErrTransport, "slow down"},
		{"plain error", http.StatusBadGateway, `upstream down`, ErrTransport, "upstream down"},
		{"bad envelope", http.StatusOK, `not json`, ErrMalformed, "decode envelope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewAnthropicClient("k", time.Second).Complete(context.Background(), OutboundCall{Endpoint: srv.URL})
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorContains(t, err, tt.substr)
		})
	}
}

func TestAnthropicClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAnthropicClient("k", time.Second).Complete(context.Background(), OutboundCall{Endpoint: url})
	assert.ErrorIs(t, err, ErrTransport)
}
