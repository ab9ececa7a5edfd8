package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 5 << 20

// Article is what the fetcher could extract from a page.
type Article struct {
	URL         string
	Title       string
	Description string
	Text        string
}

type ContentFetcher struct {
	httpClient *http.Client
}

func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	return &ContentFetcher{httpClient: &http.Client{Timeout: timeout}}
}

func (f *ContentFetcher) FetchURL(ctx context.Context, url string) (*Article, error) {
	log.Printf("[FETCHER] loading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	article := extractArticle(doc)
	article.URL = url
	if article.Title == "" && article.Description == "" && article.Text == "" {
		return nil, fmt.Errorf("no readable content at %s", url)
	}

	log.Printf("[FETCHER] %s: title %q, %d chars of text", url, truncate(article.Title, 80), len(article.Text))
	return article, nil
}

func extractArticle(doc *html.Node) *Article {
	gq := goquery.NewDocumentFromNode(doc)

	article := &Article{
		Title:       firstNonEmpty(metaContent(gq, "og:title"), strings.TrimSpace(gq.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(gq, "og:description"), metaContent(gq, "description")),
	}

	root := findMainContent(doc)
	if root == nil {
		root = doc
	}
	article.Text = extractText(root)
	return article
}

func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// subtrees skipped entirely
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"canvas":   true,
	"audio":    true,
	"video":    true,
	"nav":      true,
	"footer":   true,
}

// tags followed by a line break
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "section": true, "article": true, "main": true,
	"blockquote": true, "li": true, "dt": true, "dd": true,
	"tr": true, "td": true, "th": true, "br": true,
	"figcaption": true,
}

// tags followed by a blank line
var paraTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "figcaption": true,
}

func isJunkNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "class", "id":
			val := strings.ToLower(attr.Val)
			if strings.Contains(val, "advertisement") ||
				strings.Contains(val, "ad-banner") ||
				strings.Contains(val, "popup") ||
				strings.Contains(val, "modal") ||
				strings.Contains(val, "cookie-banner") {
				return true
			}
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		}
	}
	return false
}

// findMainContent prefers <article>, then <main>, then an element whose
// class or id looks like the content container.
func findMainContent(n *html.Node) *html.Node {
	if article := findTag(n, "article"); article != nil {
		return article
	}
	if main := findTag(n, "main"); main != nil {
		return main
	}
	return findByClass(n, []string{"article-body", "post-content", "main-content", "entry-content", "article", "content"})
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findTag(c, tag); result != nil {
			return result
		}
	}
	return nil
}

func findByClass(n *html.Node, keywords []string) *html.Node {
	if n.Type == html.ElementNode && !skipTags[strings.ToLower(n.Data)] {
		for _, attr := range n.Attr {
			if attr.Key != "class" && attr.Key != "id" {
				continue
			}
			val := strings.ToLower(attr.Val)
			for _, keyword := range keywords {
				if strings.Contains(val, keyword) {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findByClass(c, keywords); result != nil {
			return result
		}
	}
	return nil
}

var (
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

func extractText(root *html.Node) string {
	var sb strings.Builder

	lastByte := func() byte {
		if sb.Len() == 0 {
			return 0
		}
		s := sb.String()
		return s[len(s)-1]
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			if skipTags[tag] || isJunkNode(n) {
				return
			}
			if blockTags[tag] && sb.Len() > 0 && lastByte() != '\n' {
				sb.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if blockTags[tag] {
				if paraTags[tag] {
					sb.WriteString("\n\n")
				} else if lastByte() != '\n' {
					sb.WriteByte('\n')
				}
			}
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text == "" {
				return
			}
			if b := lastByte(); b != 0 && b != '\n' && b != ' ' {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = spaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(newlineRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
