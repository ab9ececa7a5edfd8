package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
)

// AnthropicClient calls the Messages API. The API key is optional: when it
// is empty the request goes out unauthenticated and a proxy in front of
// the endpoint is expected to attach credentials.
type AnthropicClient struct {
	APIKey     string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{
		APIKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AnthropicClient) Complete(ctx context.Context, call OutboundCall) (*CompletionResponse, error) {
	endpoint := call.Endpoint
	if endpoint == "" {
		endpoint = DefaultAnthropicURL
	}

	jsonData, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	log.Printf("[ANTHROPIC] sending %s request (%d bytes)", call.Model, len(jsonData))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	UpdateRateLimit("anthropic", resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	log.Printf("[ANTHROPIC] status %d in %.2fs, %d bytes", resp.StatusCode, time.Since(start).Seconds(), len(body))

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: status %d: %s: %s", ErrTransport, resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(string(body), 300))
	}

	var completion CompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %w", ErrMalformed, err)
	}
	return &completion, nil
}
