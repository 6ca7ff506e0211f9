// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// resultsPage builds an HTML body large enough to pass the block check.
func resultsPage(anchors int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < anchors; i++ {
		fmt.Fprintf(&b, `<a href="https://example.com/item/%d">上海咖啡店推荐第%d名的完整介绍</a>`, i, i)
		fmt.Fprintf(&b, `<p>这是一段足够长的描述文本，介绍了第%d家店铺的详细情况以及推荐理由。</p>`, i)
	}
	b.WriteString(strings.Repeat("<!-- filler -->", 100))
	b.WriteString("</body></html>")
	return b.String()
}

func htmlAdapterFor(ts *httptest.Server) *HTMLAdapter {
	return NewHTMLAdapter("bing", 90, 85,
		func(q string) string { return ts.URL + "?q=" + q },
		nil, ts.Client(), nil)
}

func TestHTMLAdapterFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage(5))
	}))
	defer ts.Close()

	got, err := htmlAdapterFor(ts).Fetch(context.Background(), "上海咖啡店", 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(candidates) = %d, want 5", len(got))
	}
	if got[0].URL != "https://example.com/item/0" {
		t.Errorf("first URL = %q", got[0].URL)
	}
	if got[0].Description == "" {
		t.Error("first candidate has no description")
	}
}

func TestHTMLAdapterLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage(9))
	}))
	defer ts.Close()

	got, err := htmlAdapterFor(ts).Fetch(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len(candidates) = %d, want 3", len(got))
	}
}

func TestHTMLAdapterErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    ErrorKind
		retry   bool
	}{
		{
			"rate limited",
			func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			RateLimited, true,
		},
		{
			"forbidden is blocked",
			func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) },
			Blocked, false,
		},
		{
			"server error",
			func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			NetworkFailure, true,
		},
		{
			"tiny body is blocked",
			func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "<html>blocked</html>") },
			Blocked, false,
		},
		{
			"captcha page is blocked",
			func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "<html>please solve this captcha"+strings.Repeat(" filler", 300)+"</html>")
			},
			Blocked, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			_, err := htmlAdapterFor(ts).Fetch(context.Background(), "q", 10)
			var ae *Error
			if !errors.As(err, &ae) {
				t.Fatalf("error %v is not *adapter.Error", err)
			}
			if ae.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", ae.Kind, tt.kind)
			}
			if ae.Retryable() != tt.retry {
				t.Errorf("Retryable() = %v, want %v", ae.Retryable(), tt.retry)
			}
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, resultsPage(1))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := htmlAdapterFor(ts).Fetch(ctx, "q", 10)
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("error %v is not *adapter.Error", err)
	}
	if ae.Kind != Timeout {
		t.Errorf("kind = %s, want timeout", ae.Kind)
	}
	if !ae.Retryable() {
		t.Error("timeout should be retryable")
	}
}

func TestZhihuAdapterFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "上海咖啡店推荐" {
			t.Errorf("missing query param, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[
			{"type":"search_result","object":{"title":"上海咖啡店推荐 - 知乎","url":"/question/123","excerpt":"详细的推荐列表"}},
			{"type":"answer","object":{"question":{"title":"上海哪里的咖啡店值得一去？"},"url":"https://www.zhihu.com/answer/9","content":"很长的回答内容"}},
			{"type":"ad","object":{"title":"广告内容不应出现在结果里"}}
		]}`)
	}))
	defer ts.Close()

	old := zhihuAPIBase
	zhihuAPIBase = ts.URL
	defer func() { zhihuAPIBase = old }()

	a := &ZhihuAdapter{Client: ts.Client()}
	got, err := a.Fetch(context.Background(), "上海咖啡店推荐", 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(got))
	}
	if got[0].URL != "https://www.zhihu.com/question/123" {
		t.Errorf("relative URL not absolutized: %q", got[0].URL)
	}
	if got[1].Title != "上海哪里的咖啡店值得一去？" {
		t.Errorf("answer title not taken from question: %q", got[1].Title)
	}
	if got[1].Description != "很长的回答内容" {
		t.Errorf("description not taken from content: %q", got[1].Description)
	}
}

func TestZhihuAdapterMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer ts.Close()

	old := zhihuAPIBase
	zhihuAPIBase = ts.URL
	defer func() { zhihuAPIBase = old }()

	a := &ZhihuAdapter{Client: ts.Client()}
	_, err := a.Fetch(context.Background(), "q", 10)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != MalformedResponse {
		t.Fatalf("err = %v, want malformed_response", err)
	}
	if ae.Retryable() {
		t.Error("malformed response must not be retryable")
	}
}

func TestByPriority(t *testing.T) {
	client := &http.Client{}
	all := append(NewEngineAdapters(client), NewSiteAdapters(client, SiteCredentials{})...)

	ordered := ByPriority(all, nil)
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Priority() > ordered[i-1].Priority() {
			t.Fatalf("adapters out of priority order at %d: %s > %s",
				i, ordered[i].Name(), ordered[i-1].Name())
		}
	}

	subset := ByPriority(all, []string{"yandex", "bing"})
	if len(subset) != 2 || subset[0].Name() != "bing" || subset[1].Name() != "yandex" {
		t.Errorf("subset = %v, want [bing yandex]", Names(subset))
	}

	// Unknown names fall back to the full set.
	if got := ByPriority(all, []string{"nonexistent"}); len(got) != len(all) {
		t.Errorf("unknown source filter returned %d adapters, want %d", len(got), len(all))
	}
}

func TestSiteAdaptersDoubanCookie(t *testing.T) {
	var gotCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, resultsPage(2))
	}))
	defer ts.Close()

	prev := doubanBase
	doubanBase = ts.URL
	defer func() { doubanBase = prev }()

	sites := NewSiteAdapters(ts.Client(), SiteCredentials{DoubanCookie: `bid="abc123"`})
	var douban Adapter
	for _, a := range sites {
		if a.Name() == "douban" {
			douban = a
		}
	}
	if douban == nil {
		t.Fatal("no douban adapter in site set")
	}

	if _, err := douban.Fetch(context.Background(), "上海咖啡店", 5); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotCookie != `bid="abc123"` {
		t.Errorf("Cookie header = %q, want the configured session cookie", gotCookie)
	}

	// Without a cookie the header stays unset.
	gotCookie = "sentinel"
	bare := NewSiteAdapters(ts.Client(), SiteCredentials{})
	for _, a := range bare {
		if a.Name() == "douban" {
			douban = a
		}
	}
	if _, err := douban.Fetch(context.Background(), "上海咖啡店", 5); err != nil {
		t.Fatalf("Fetch without cookie: %v", err)
	}
	if gotCookie != "" {
		t.Errorf("Cookie header = %q, want empty", gotCookie)
	}
}
