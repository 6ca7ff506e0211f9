// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Direct-site endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	zhihuAPIBase    = "https://www.zhihu.com/api/v4/search_v3"
	doubanBase      = "https://www.douban.com/search"
	baiduZhidaoBase = "https://zhidao.baidu.com/search"
)

// siteHeaders carries the per-site request headers the platforms expect.
var siteHeaders = map[string]map[string]string{
	"zhihu": {
		"Accept":  "application/json, text/plain, */*",
		"Referer": "https://www.zhihu.com/",
	},
	"douban": {
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	},
	"baidu_zhidao": {
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9",
	},
}

// ZhihuAdapter queries the Zhihu search_v3 JSON API.
type ZhihuAdapter struct {
	Client *http.Client
	// Cookie is an optional authenticated session cookie; the API
	// answers anonymously without it but rate-limits harder.
	Cookie string
}

func (a *ZhihuAdapter) Name() string       { return "zhihu" }
func (a *ZhihuAdapter) Priority() int      { return 95 }
func (a *ZhihuAdapter) BusinessValue() int { return 95 }

// zhihu search_v3 payload shapes; only the fields we consume.
type zhihuResponse struct {
	Data []zhihuItem `json:"data"`
}

type zhihuItem struct {
	Type   string      `json:"type"`
	Object zhihuObject `json:"object"`
}

type zhihuObject struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Question struct {
		Title string `json:"title"`
	} `json:"question"`
}

// Fetch queries the search API and returns answer/article candidates.
func (a *ZhihuAdapter) Fetch(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 || limit > perSourceCap {
		limit = perSourceCap
	}
	params := url.Values{
		"t":          {"general"},
		"q":          {query},
		"correction": {"1"},
		"offset":     {"0"},
		"limit":      {"10"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, zhihuAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, Errf(MalformedResponse, a.Name(), "creating request: %v", err)
	}
	req.Header.Set("User-Agent", userAgentPool[0])
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	for k, v := range siteHeaders["zhihu"] {
		req.Header.Set(k, v)
	}
	if a.Cookie != "" {
		req.Header.Set("Cookie", a.Cookie)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, Classify(a.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, Errf(RateLimited, a.Name(), "HTTP 429")
	case resp.StatusCode == http.StatusForbidden:
		return nil, Errf(Blocked, a.Name(), "HTTP 403")
	case resp.StatusCode != http.StatusOK:
		return nil, Errf(NetworkFailure, a.Name(), "HTTP %d", resp.StatusCode)
	}

	var zr zhihuResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&zr); err != nil {
		return nil, Errf(MalformedResponse, a.Name(), "decoding search_v3 payload: %v", err)
	}

	var out []Candidate
	for _, item := range zr.Data {
		switch item.Type {
		case "search_result", "answer", "article":
		default:
			continue
		}
		title := item.Object.Title
		if title == "" {
			title = item.Object.Question.Title
		}
		if utf8.RuneCountInString(title) <= 5 {
			continue
		}
		desc := item.Object.Excerpt
		if desc == "" {
			desc = truncateRunes(item.Object.Content, 200)
		}
		out = append(out, Candidate{
			Title:       title,
			URL:         absoluteZhihuURL(item.Object.URL),
			Description: desc,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func absoluteZhihuURL(path string) string {
	if strings.HasPrefix(path, "/") {
		return "https://www.zhihu.com" + path
	}
	return path
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SiteCredentials carries the optional per-site session cookies. Empty
// fields leave the corresponding adapter unauthenticated.
type SiteCredentials struct {
	ZhihuCookie  string
	DoubanCookie string
}

// NewSiteAdapters returns the direct Chinese-site adapter set in
// descending priority order.
func NewSiteAdapters(client *http.Client, creds SiteCredentials) []Adapter {
	doubanHeaders := siteHeaders["douban"]
	if creds.DoubanCookie != "" {
		h := make(map[string]string, len(doubanHeaders)+1)
		for k, v := range doubanHeaders {
			h[k] = v
		}
		h["Cookie"] = creds.DoubanCookie
		doubanHeaders = h
	}
	return []Adapter{
		&ZhihuAdapter{Client: client, Cookie: creds.ZhihuCookie},
		NewHTMLAdapter("douban", 85, 85,
			func(q string) string { return doubanBase + "?q=" + q + "&cat=1002" },
			doubanHeaders, client, nil),
		NewHTMLAdapter("baidu_zhidao", 80, 80,
			func(q string) string { return baiduZhidaoBase + "?word=" + q + "&ie=utf-8" },
			siteHeaders["baidu_zhidao"], client, nil),
	}
}
