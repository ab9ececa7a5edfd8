package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ChatCompletionsClient talks to OpenAI-compatible chat completion endpoints
// (OpenRouter, Groq, LM Studio) and presents their replies as content
// segments, so the rest of the pipeline does not care which provider ran.
type ChatCompletionsClient struct {
	BaseURL    string
	APIKey     string
	Provider   string
	httpClient *http.Client
}

func NewChatCompletionsClient(baseURL, apiKey string, timeout time.Duration) *ChatCompletionsClient {
	return &ChatCompletionsClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Provider:   providerName(baseURL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *ChatCompletionsClient) Complete(ctx context.Context, call OutboundCall) (*CompletionResponse, error) {
	endpoint := call.Endpoint
	if endpoint == "" {
		endpoint = c.BaseURL + "/chat/completions"
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
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.Provider == "openrouter" {
		req.Header.Set("HTTP-Referer", "https://news-detector.local")
		req.Header.Set("X-Title", "News Detector")
	}

	tag := strings.ToUpper(c.Provider)
	log.Printf("[%s] sending %s request (%d bytes)", tag, call.Model, len(jsonData))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	UpdateRateLimit(c.Provider, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	log.Printf("[%s] status %d in %.2fs, %d bytes", tag, resp.StatusCode, time.Since(start).Seconds(), len(body))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(string(body), 300))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %w", ErrMalformed, err)
	}
	log.Printf("[%s] tokens: %d total (prompt %d, completion %d)", tag,
		chat.Usage.TotalTokens, chat.Usage.PromptTokens, chat.Usage.CompletionTokens)

	completion := &CompletionResponse{Content: make([]ContentSegment, 0, len(chat.Choices))}
	for _, choice := range chat.Choices {
		if choice.Message.Role != "" && choice.Message.Role != "assistant" {
			continue
		}
		completion.Content = append(completion.Content, ContentSegment{Type: SegmentText, Text: choice.Message.Content})
		// Only the first choice is the answer; n>1 is never requested.
		break
	}
	return completion, nil
}

func providerName(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "openrouter.ai"):
		return "openrouter"
	case strings.Contains(baseURL, "groq.com"):
		return "groq"
	case strings.Contains(baseURL, "localhost"), strings.Contains(baseURL, "127.0.0.1"):
		return "lmstudio"
	default:
		return "openai"
	}
}
