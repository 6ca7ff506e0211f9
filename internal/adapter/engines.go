// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Search-engine endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	startpageBase = "https://startpage.com/sp/search"
	bingBase      = "https://bing.com/search"
	yandexBase    = "https://yandex.com/search/"
)

// perSourceCap bounds how many candidates one source contributes per call.
const perSourceCap = 10

// maxBodyBytes bounds how much of a response page is read.
const maxBodyBytes = 2 << 20

// minPageBytes: smaller bodies are treated as block pages.
const minPageBytes = 1000

// blockIndicators mark pages served in place of real results.
var blockIndicators = []string{
	"captcha",
	"unusual traffic",
	"access denied",
	"安全验证",
	"验证码",
}

// userAgentPool rotates browser identities across requests.
var userAgentPool = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// ExtractFunc turns one fetched page into raw candidates. The markup
// handling of a given site lives entirely behind this function, so a
// layout change swaps the extractor without touching the adapter.
type ExtractFunc func(page []byte, query string) []Candidate

// HTMLAdapter fetches a search-results page over HTTP and delegates
// candidate extraction to a site-specific ExtractFunc.
type HTMLAdapter struct {
	name          string
	priority      int
	businessValue int
	// queryURL renders the escaped query into the request URL.
	queryURL func(escaped string) string
	headers  map[string]string
	client   *http.Client
	extract  ExtractFunc
}

// NewHTMLAdapter builds an adapter for one HTML source. A nil extract
// uses the generic anchor extractor.
func NewHTMLAdapter(name string, priority, businessValue int, queryURL func(string) string, headers map[string]string, client *http.Client, extract ExtractFunc) *HTMLAdapter {
	if extract == nil {
		extract = AnchorExtract
	}
	return &HTMLAdapter{
		name:          name,
		priority:      priority,
		businessValue: businessValue,
		queryURL:      queryURL,
		headers:       headers,
		client:        client,
		extract:       extract,
	}
}

func (a *HTMLAdapter) Name() string       { return a.name }
func (a *HTMLAdapter) Priority() int      { return a.priority }
func (a *HTMLAdapter) BusinessValue() int { return a.businessValue }

// Fetch retrieves the results page and extracts candidates.
func (a *HTMLAdapter) Fetch(ctx context.Context, query string, limit int) ([]Candidate, error) {
	page, aerr := fetchPage(ctx, a.client, a.name, a.queryURL(url.QueryEscape(query)), a.headers)
	if aerr != nil {
		return nil, aerr
	}

	candidates := a.extract(page, query)
	if limit <= 0 || limit > perSourceCap {
		limit = perSourceCap
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// NewEngineAdapters returns the generic search-engine adapter set in
// descending priority order.
func NewEngineAdapters(client *http.Client) []Adapter {
	return []Adapter{
		NewHTMLAdapter("startpage", 100, 95,
			func(q string) string { return startpageBase + "?query=" + q },
			nil, client, nil),
		NewHTMLAdapter("bing", 90, 85,
			func(q string) string { return bingBase + "?q=" + q },
			nil, client, nil),
		NewHTMLAdapter("yandex", 80, 70,
			func(q string) string { return yandexBase + "?text=" + q },
			nil, client, nil),
	}
}

// fetchPage performs one GET and normalizes every failure mode. It never
// returns a non-nil page together with an error.
func fetchPage(ctx context.Context, client *http.Client, source, rawURL string, headers map[string]string) ([]byte, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Errf(MalformedResponse, source, "creating request: %v", err)
	}
	req.Header.Set("User-Agent", userAgentPool[rand.Intn(len(userAgentPool))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, Classify(source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, Errf(RateLimited, source, "HTTP 429")
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, Errf(Blocked, source, "HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, Errf(NetworkFailure, source, "HTTP %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, Classify(source, err)
	}
	if len(page) < minPageBytes {
		return nil, Errf(Blocked, source, "body too small (%d bytes)", len(page))
	}
	lower := strings.ToLower(string(page[:min(len(page), 4096)]))
	for _, marker := range blockIndicators {
		if strings.Contains(lower, marker) {
			return nil, Errf(Blocked, source, "block indicator %q", marker)
		}
	}
	return page, nil
}

var (
	anchorRe = regexp.MustCompile(`(?is)<a[^>]+href="(https?://[^"#]+)"[^>]*>(.*?)</a>`)
	paraRe   = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// AnchorExtract is the generic fallback extractor: outbound anchors
// become titles/URLs and page paragraphs are paired up as descriptions.
// It trades precision for resilience and is meant to be replaced by a
// per-site extractor where the layout is known.
func AnchorExtract(page []byte, _ string) []Candidate {
	paras := paraRe.FindAllSubmatch(page, perSourceCap*2)
	var descs []string
	for _, p := range paras {
		text := stripTags(string(p[1]))
		if utf8.RuneCountInString(text) > 20 {
			descs = append(descs, text)
		}
	}

	var out []Candidate
	seen := make(map[string]struct{})
	for _, m := range anchorRe.FindAllSubmatch(page, -1) {
		href := string(m[1])
		title := stripTags(string(m[2]))
		if utf8.RuneCountInString(title) <= 5 {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}

		desc := ""
		if len(out) < len(descs) {
			desc = descs[len(out)]
		}
		out = append(out, Candidate{Title: title, URL: href, Description: desc})
		if len(out) >= perSourceCap {
			break
		}
	}
	return out
}

func stripTags(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return strings.Join(strings.Fields(s), " ")
}
