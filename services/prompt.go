package services

import (
	"fmt"
	"strings"

	"news-detector/models"
)

// Rubric lists what the model is asked to weigh. It is embedded verbatim in
// every prompt.
const Rubric = "Analyze for: sensational language, source credibility, logical consistency, emotional manipulation, verifiable facts, and bias."

// ResponseSchema is the output structure the model is instructed to honor.
const ResponseSchema = `{
  "credibility_score": (number 0-100),
  "verdict": "Real/Suspicious/Fake",
  "confidence": "Low/Medium/High",
  "key_indicators": ["indicator1", "indicator2", ...],
  "red_flags": ["flag1", "flag2", ...],
  "reasoning": "brief explanation",
  "recommendations": ["recommendation1", "recommendation2", ...]
}`

const DefaultMaxTokens = 1000

// maxArticleRunes caps fetched article text appended in URL mode.
const maxArticleRunes = 12000

// RequestBuilder turns an AnalysisRequest into an OutboundCall. It performs
// no validation and no I/O; callers only invoke it with non-empty content.
type RequestBuilder struct {
	Endpoint  string
	Model     string
	MaxTokens int
}

func NewRequestBuilder(endpoint, model string, maxTokens int) *RequestBuilder {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &RequestBuilder{Endpoint: endpoint, Model: model, MaxTokens: maxTokens}
}

func (b *RequestBuilder) Build(req models.AnalysisRequest) OutboundCall {
	return b.BuildWithArticle(req, nil)
}

// BuildWithArticle is Build plus, in URL mode, the fetched page appended
// after the literal URL. A nil article yields exactly Build's output.
func (b *RequestBuilder) BuildWithArticle(req models.AnalysisRequest, article *Article) OutboundCall {
	return OutboundCall{
		Endpoint:  b.Endpoint,
		Model:     b.Model,
		MaxTokens: b.MaxTokens,
		Messages: []Message{
			{Role: "user", Content: buildPrompt(req, article)},
		},
	}
}

func buildPrompt(req models.AnalysisRequest, article *Article) string {
	var b strings.Builder

	subject := "news article text"
	if req.Mode == models.ModeURL {
		subject = "news article URL"
	}
	b.WriteString(fmt.Sprintf("Analyze the following %s for potential fake news indicators. Provide your analysis in JSON format with the following structure:\n", subject))
	b.WriteString(ResponseSchema)
	b.WriteString("\n\n")

	if req.Mode == models.ModeURL {
		b.WriteString("Article URL: ")
		b.WriteString(req.Content)
		if article != nil {
			writeArticle(&b, article)
		}
	} else {
		b.WriteString("Article text: ")
		b.WriteString(req.Content)
	}

	b.WriteString("\n\n")
	b.WriteString(Rubric)
	return b.String()
}

func writeArticle(b *strings.Builder, article *Article) {
	if article.Title != "" {
		b.WriteString("\nPage title: ")
		b.WriteString(article.Title)
	}
	if article.Description != "" {
		b.WriteString("\nPage description: ")
		b.WriteString(article.Description)
	}
	if article.Text != "" {
		b.WriteString("\nPage text:\n")
		b.WriteString(truncate(article.Text, maxArticleRunes))
	}
}
