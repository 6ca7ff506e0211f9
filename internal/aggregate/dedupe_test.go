// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"reflect"
	"testing"

	"github.com/pdiddy/sinoseek/pkg/types"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Attention Is ALL You Need!", "attention is all you need"},
		{"  上海咖啡店推荐 - 知乎  ", "上海咖啡店推荐  知乎"},
		{"___", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupeFirstSeenWins(t *testing.T) {
	results := []types.Result{
		{Title: "上海咖啡店的完整推荐清单", Source: "startpage", BusinessValueScore: 40},
		{Title: "上海咖啡店的完整推荐清单!", Source: "bing", BusinessValueScore: 99},
		{Title: "另一份不重复的咖啡店介绍文章", Source: "bing"},
	}

	got := Dedupe(results)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// First-seen wins even when the later copy scores higher.
	if got[0].Source != "startpage" {
		t.Errorf("surviving copy from %q, want startpage", got[0].Source)
	}
}

func TestDedupeDropsShortTitles(t *testing.T) {
	results := []types.Result{
		{Title: "短标题"},
		{Title: "这个标题足够长可以保留下来"},
	}
	got := Dedupe(results)
	if len(got) != 1 || got[0].Title != "这个标题足够长可以保留下来" {
		t.Errorf("got %+v, want only the long title", got)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	results := []types.Result{
		{Title: "上海咖啡店的完整推荐清单", URL: "https://a.example/1"},
		{Title: "上海咖啡店的完整推荐清单", URL: "https://a.example/2"},
		{Title: "另一份不重复的咖啡店介绍文章", URL: "https://a.example/3"},
	}
	once := Dedupe(results)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedupe is not a fixed point:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestDedupeWithURLSecondaryKey(t *testing.T) {
	results := []types.Result{
		{Title: "上海咖啡店的完整推荐清单", URL: "https://a.example/same"},
		{Title: "完全不同的标题但指向同一个地址", URL: "https://a.example/SAME"},
	}
	got := DedupeWithURL(results)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (URL key should collapse)", len(got))
	}
	// Plain Dedupe keeps both: titles differ.
	if got := Dedupe(results); len(got) != 2 {
		t.Errorf("title-only dedupe len = %d, want 2", len(got))
	}
}

func TestRankOrdersByComposite(t *testing.T) {
	results := []types.Result{
		{Title: "low", BusinessValueScore: 20, RelevanceScore: 20},
		{Title: "high", BusinessValueScore: 90, RelevanceScore: 80},
		{Title: "mid", BusinessValueScore: 50, RelevanceScore: 50},
	}
	got := Rank(results, false)
	want := []string{"high", "mid", "low"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("Rank[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestRankStable(t *testing.T) {
	results := []types.Result{
		{Title: "a", BusinessValueScore: 50, RelevanceScore: 50},
		{Title: "b", BusinessValueScore: 50, RelevanceScore: 50},
		{Title: "c", BusinessValueScore: 80},
	}
	once := Rank(results, false)
	twice := Rank(once, false)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-ranking changed order:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if once[1].Title != "a" || once[2].Title != "b" {
		t.Errorf("ties broke input order: %+v", once)
	}
}

func TestRankPremiumPartition(t *testing.T) {
	results := []types.Result{
		{Title: "plain-high", BusinessValueScore: 95, RelevanceScore: 95},
		{Title: "premium-low", BusinessValueScore: 10, RelevanceScore: 10, IsPremium: true},
		{Title: "plain-mid", BusinessValueScore: 50, RelevanceScore: 50},
		{Title: "premium-high", BusinessValueScore: 80, RelevanceScore: 80, IsPremium: true},
	}
	got := Rank(results, true)
	want := []string{"premium-high", "premium-low", "plain-high", "plain-mid"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("Rank[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}
