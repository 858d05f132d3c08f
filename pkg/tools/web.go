package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"

// WebSearchTool searches the web using the Brave Search API.
type WebSearchTool struct {
	apiKey     string
	maxResults int
	client     *http.Client
}

func NewWebSearchTool(apiKey string, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchTool{
		apiKey:     apiKey,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "Search the web. Returns titles, URLs, and snippets."
}

func (t *WebSearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string", "description": "Search query"},
			"count": map[string]interface{}{"type": "integer", "description": "Results (1-10)", "minimum": 1, "maximum": 10},
		},
		"required": []string{"query"},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return ErrorResult("query is required")
	}
	if t.apiKey == "" {
		return ErrorResult("web search is not configured (missing Brave API key)")
	}

	count := t.maxResults
	if c, ok := args["count"].(float64); ok {
		count = int(c)
	}
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}

	reqURL := fmt.Sprintf("https://api.search.brave.com/res/v1/web/search?q=%s&count=%d",
		url.QueryEscape(query), count)

	req, _ := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrorResult(fmt.Sprintf("search failed: %v", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return ErrorResult(fmt.Sprintf("Brave API returned HTTP %d", resp.StatusCode))
	}

	var data struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return ErrorResult(fmt.Sprintf("parsing results: %v", err))
	}

	results := data.Web.Results
	if len(results) == 0 {
		return SuccessResult(fmt.Sprintf("No results for: %s", query))
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Results for: %s\n", query))
	for i, item := range results {
		if i >= count {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, item.Title, item.URL))
		if item.Description != "" {
			lines = append(lines, fmt.Sprintf("   %s", item.Description))
		}
	}
	return SuccessResult(strings.Join(lines, "\n"))
}

// WebFetchTool fetches a URL and extracts readable text content.
type WebFetchTool struct {
	maxChars int
	client   *http.Client
}

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		maxChars: 50000,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (t *WebFetchTool) Name() string {
	return "web_fetch"
}

func (t *WebFetchTool) Description() string {
	return "Fetch a URL and extract readable text content."
}

func (t *WebFetchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":       map[string]interface{}{"type": "string", "description": "URL to fetch"},
			"max_chars": map[string]interface{}{"type": "integer", "minimum": 100, "description": "Max content length"},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	rawURL, ok := args["url"].(string)
	if !ok || rawURL == "" {
		return ErrorResult("url is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrorResult(fmt.Sprintf("invalid URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrorResult(fmt.Sprintf("only http/https allowed, got %q", u.Scheme))
	}
	if u.Host == "" {
		return ErrorResult("URL is missing a host")
	}

	maxChars := t.maxChars
	if mc, ok := args["max_chars"].(float64); ok && int(mc) >= 100 {
		maxChars = int(mc)
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrorResult(fmt.Sprintf("fetch failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return ErrorResult(fmt.Sprintf("reading response: %v", err))
	}
	if resp.StatusCode >= 400 {
		return ErrorResult(fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode, rawURL))
	}

	ctype := resp.Header.Get("Content-Type")
	text := string(body)

	switch {
	case strings.Contains(ctype, "application/json"):
		var j interface{}
		if json.Unmarshal(body, &j) == nil {
			if pretty, err := json.MarshalIndent(j, "", "  "); err == nil {
				text = string(pretty)
			}
		}
	case strings.Contains(ctype, "text/html") || isHTMLContent(text):
		title, article := extractReadable(text)
		text = stripTags(article)
		if title != "" {
			text = title + "\n\n" + text
		}
	}

	if len(text) > maxChars {
		text = text[:maxChars] + "\n... (truncated)"
	}

	return SuccessResult(text)
}

var (
	reScript   = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle    = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reNav      = regexp.MustCompile(`(?is)<(?:nav|header|footer|aside)[\s\S]*?</(?:nav|header|footer|aside)>`)
	reTag      = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
	reTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reArticle  = regexp.MustCompile(`(?is)<(?:article|main)[^>]*>([\s\S]*?)</(?:article|main)>`)
	reBody     = regexp.MustCompile(`(?is)<body[^>]*>([\s\S]*?)</body>`)
)

func isHTMLContent(text string) bool {
	prefix := text
	if len(prefix) > 256 {
		prefix = prefix[:256]
	}
	lower := strings.ToLower(prefix)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

// extractReadable prefers <article>/<main> content, falling back to
// <body>, and strips obvious noise elements.
func extractReadable(rawHTML string) (title, content string) {
	if m := reTitle.FindStringSubmatch(rawHTML); len(m) > 1 {
		title = strings.TrimSpace(stripTags(m[1]))
	}

	if m := reArticle.FindStringSubmatch(rawHTML); len(m) > 1 {
		content = m[1]
	} else if m := reBody.FindStringSubmatch(rawHTML); len(m) > 1 {
		content = m[1]
	} else {
		content = rawHTML
	}

	content = reScript.ReplaceAllString(content, "")
	content = reStyle.ReplaceAllString(content, "")
	content = reNav.ReplaceAllString(content, "")

	return title, content
}

func stripTags(s string) string {
	s = reScript.ReplaceAllString(s, "")
	s = reStyle.ReplaceAllString(s, "")
	s = reTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = reSpaces.ReplaceAllString(s, " ")
	s = reNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
