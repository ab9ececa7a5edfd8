package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-detector/models"
)

func TestRequestBuilder_Text(t *testing.T) {
	b := NewRequestBuilder("https://api.anthropic.com/v1/messages", "claude-sonnet-4-20250514", 1000)
	article := "Scientists confirm chocolate cures all diseases!!!"

	call := b.Build(models.AnalysisRequest{Mode: models.ModeText, Content: article})

	assert.Equal(t, "https://api.anthropic.com/v1/messages", call.Endpoint)
	assert.Equal(t, "claude-sonnet-4-20250514", call.Model)
	assert.Equal(t, 1000, call.MaxTokens)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, "user", call.Messages[0].Role)

	prompt := call.Prompt()
	assert.True(t, strings.HasPrefix(prompt, "Analyze the following news article text for potential fake news indicators."))
	assert.Contains(t, prompt, "Article text: "+article)
	assert.NotContains(t, prompt, "Article URL:")
	assert.Contains(t, prompt, ResponseSchema)
	assert.True(t, strings.HasSuffix(prompt, Rubric))
}

func TestRequestBuilder_URL(t *testing.T) {
	b := NewRequestBuilder("", "m", 0)
	link := "https://example.com/breaking?id=42&ref=home"

	call := b.Build(models.AnalysisRequest{Mode: models.ModeURL, Content: link})

	assert.Equal(t, DefaultMaxTokens, call.MaxTokens)
	prompt := call.Prompt()
	assert.Contains(t, prompt, "news article URL for potential fake news indicators")
	assert.Contains(t, prompt, "Article URL: "+link)
	assert.NotContains(t, prompt, "Article text:")
	for _, criterion := range []string{
		"sensational language", "source credibility", "logical consistency",
		"emotional manipulation", "verifiable facts", "bias",
	} {
		assert.Contains(t, prompt, criterion)
	}
}

func TestRequestBuilder_ContentVerbatim(t *testing.T) {
	b := NewRequestBuilder("", "m", 1000)
	content := "  line one\n\n\t\"quoted\" {braces} ```fenced```  "

	call := b.Build(models.AnalysisRequest{Mode: models.ModeText, Content: content})

	assert.Contains(t, call.Prompt(), "Article text: "+content+"\n\n"+Rubric)
}

func TestRequestBuilder_Deterministic(t *testing.T) {
	b := NewRequestBuilder("", "m", 1000)
	req := models.AnalysisRequest{Mode: models.ModeText, Content: "same"}

	assert.Equal(t, b.Build(req), b.Build(req))
}

func TestRequestBuilder_WithArticle(t *testing.T) {
	b := NewRequestBuilder("", "m", 1000)
	req := models.AnalysisRequest{Mode: models.ModeURL, Content: "https://example.com/a"}

	plain := b.Build(req)
	assert.Equal(t, plain, b.BuildWithArticle(req, nil))

	enriched := b.BuildWithArticle(req, &Article{
		Title:       "Moon made of cheese",
		Description: "Officials stunned",
		Text:        strings.Repeat("x", maxArticleRunes+100),
	}).Prompt()

	assert.Contains(t, enriched, "Article URL: https://example.com/a\nPage title: Moon made of cheese")
	assert.Contains(t, enriched, "Page description: Officials stunned")
	assert.Contains(t, enriched, strings.Repeat("x", maxArticleRunes)+"\n\n"+Rubric)
	assert.NotContains(t, enriched, strings.Repeat("x", maxArticleRunes+1))
}

func TestRequestBuilder_ArticleIgnoredInTextMode(t *testing.T) {
	b := NewRequestBuilder("", "m", 1000)
	req := models.AnalysisRequest{Mode: models.ModeText, Content: "body"}

	assert.Equal(t, b.Build(req), b.BuildWithArticle(req, &Article{Title: "ignored"}))
}
