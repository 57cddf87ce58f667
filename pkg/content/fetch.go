package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// maxArticleBytes bounds how much HTML we read from an untrusted URL.
const maxArticleBytes = 10 * 1024 * 1024

var (
	rubyRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	rubyRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby strips ruby annotation tags (<rt>, <rp>) from HTML. Article
// extraction keeps all text content, so furigana would otherwise duplicate
// every annotated word ("漢字" becoming "漢字かんじ").
func SanitizeRuby(html []byte) []byte {
	cleaned := rubyRT.ReplaceAll(html, nil)
	return rubyRP.ReplaceAll(cleaned, nil)
}

// FetchArticle downloads a web page and extracts its readable title and body
// text.
func FetchArticle(ctx context.Context, client *http.Client, rawURL string) (title, text string, err error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	// Some article hosts refuse requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch %s: status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(body) >= maxArticleBytes {
		return "", "", fmt.Errorf("fetch %s: page exceeds %d bytes", rawURL, maxArticleBytes)
	}

	body = SanitizeRuby(body)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", "", fmt.Errorf("extract article from %s: %w", rawURL, err)
	}
	return article.Title, article.TextContent, nil
}

// ImportURL fetches an article and imports its extracted text. client may be
// nil for a default 30-second timeout.
func (im *Importer) ImportURL(ctx context.Context, client *http.Client, rawURL string) (Content, error) {
	title, text, err := FetchArticle(ctx, client, rawURL)
	if err != nil {
		return Content{}, err
	}
	if title == "" {
		title = rawURL
	}
	return im.ImportText(ctx, title, SourceURL, rawURL, text)
}
