package services

import (
	"log"

	"news-detector/config"
)

// BuildAnalyzer wires the provider client, request builder and optional
// page fetcher selected by cfg.
func BuildAnalyzer(cfg *config.Config) *AnalyzerService {
	var (
		client   Completer
		endpoint string
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c := NewChatCompletionsClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.RequestTimeout)
		client, endpoint = c, c.BaseURL+"/chat/completions"
		log.Printf("[MAIN] provider %s at %s", c.Provider, c.BaseURL)
	default:
		if cfg.AnthropicAPIKey == "" {
			log.Println("[MAIN] ANTHROPIC_API_KEY not set, expecting a proxy to attach credentials")
		}
		client, endpoint = NewAnthropicClient(cfg.AnthropicAPIKey, cfg.RequestTimeout), cfg.AnthropicURL
		log.Printf("[MAIN] provider anthropic at %s", endpoint)
	}

	var fetcher ArticleFetcher
	if cfg.FetchURLContent {
		fetcher = NewContentFetcher(cfg.RequestTimeout)
		log.Println("[MAIN] URL enrichment enabled")
	}

	builder := NewRequestBuilder(endpoint, cfg.Model(), cfg.MaxTokens)
	return NewAnalyzerService(builder, client, fetcher)
}
