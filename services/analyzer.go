package services

import (
	"context"
	"log"
	"time"

	"news-detector/models"
)

// ArticleFetcher loads a page for URL-mode enrichment.
type ArticleFetcher interface {
	FetchURL(ctx context.Context, url string) (*Article, error)
}

// AnalyzerService runs the pipeline: build the call, send it once,
// interpret the reply. It never returns an error; failures are folded into
// the outcome and their cause is logged.
type AnalyzerService struct {
	builder *RequestBuilder
	client  Completer
	fetcher ArticleFetcher
}

// NewAnalyzerService wires the pipeline. fetcher may be nil, in which case
// URL mode sends only the URL.
func NewAnalyzerService(builder *RequestBuilder, client Completer, fetcher ArticleFetcher) *AnalyzerService {
	return &AnalyzerService{
		builder: builder,
		client:  client,
		fetcher: fetcher,
	}
}

func (s *AnalyzerService) Analyze(ctx context.Context, req models.AnalysisRequest) models.Outcome {
	start := time.Now()
	log.Printf("[ANALYZER] %s analysis (%d chars)", req.Mode, len(req.Content))

	var article *Article
	if req.Mode == models.ModeURL && s.fetcher != nil {
		a, err := s.fetcher.FetchURL(ctx, req.Content)
		if err != nil {
			log.Printf("[ANALYZER] page fetch failed, sending URL only: %v", err)
		} else {
			article = a
		}
	}

	call := s.builder.BuildWithArticle(req, article)
	resp, callErr := s.client.Complete(ctx, call)

	outcome, cause := Interpret(resp, callErr)
	if cause != nil {
		log.Printf("[ANALYZER] analysis failed after %v: %v", time.Since(start), cause)
		return outcome
	}

	r := outcome.Result
	if score, ok := r.Score(); ok {
		log.Printf("[ANALYZER] verdict %q, score %d, confidence %q in %v", r.Verdict, score, r.Confidence, time.Since(start))
		if req.Mode == models.ModeURL {
			UpsertDomainStats(ctx, req.Content, score)
		}
	} else {
		log.Printf("[ANALYZER] verdict %q without score in %v", r.Verdict, time.Since(start))
	}
	if r.Verdict != "" && !r.Verdict.Known() {
		log.Printf("[ANALYZER] unrecognized verdict %q", r.Verdict)
	}
	return outcome
}
