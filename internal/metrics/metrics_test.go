// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sinoseek/pkg/types"
)

func okRun(query string, seconds float64, sources ...string) types.Response {
	resp := types.Response{
		Query: query,
		Results: []types.Result{
			{Title: "上海咖啡店的完整推荐清单", ChineseContent: true, ContentQualityScore: 80, BusinessValueScore: 60},
			{Title: "Shanghai coffee article", ContentQualityScore: 40, BusinessValueScore: 30},
		},
		SourcesUsed: sources,
		Performance: types.Performance{DurationSeconds: seconds},
	}
	resp.Tally()
	return resp
}

func failedRun(query string) types.Response {
	return types.Response{Query: query, Success: false, SourcesUsed: nil}
}

func TestRecordSample(t *testing.T) {
	c := NewCollector(10)
	s := c.Record(okRun("上海咖啡店", 0.4, "startpage", "bing"))

	assert.True(t, s.Success)
	assert.Equal(t, 2, s.TotalResults)
	assert.Equal(t, 1, s.ChineseResults)
	assert.Equal(t, "excellent", s.PerformanceTier)
	assert.InDelta(t, 60.0, s.AvgQualityScore, 1e-9)
	assert.InDelta(t, 45.0, s.AvgBusinessValue, 1e-9)
	assert.Equal(t, []string{"startpage", "bing"}, s.SourcesUsed)
}

func TestTier(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0.5, "excellent"},
		{1.0, "good"},
		{2.9, "good"},
		{3.0, "acceptable"},
		{6.0, "slow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.seconds), "Tier(%v)", tt.seconds)
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 5; i++ {
		c.Record(okRun(fmt.Sprintf("查询%d", i), 0.1, "startpage"))
	}
	history := c.History()
	require.Len(t, history, 3)
	assert.Equal(t, "查询2", history[0].Query)
	assert.Equal(t, "查询4", history[2].Query)
	// Running totals are not bounded by retention.
	assert.Equal(t, 5, c.Summary().TotalSearches)
}

func TestSummaryHealthy(t *testing.T) {
	c := NewCollector(0)
	for i := 0; i < 5; i++ {
		c.Record(okRun("上海咖啡店", 0.5, "startpage"))
	}
	sum := c.Summary()
	assert.Equal(t, "healthy", sum.Status)
	assert.InDelta(t, 1.0, sum.SuccessRate, 1e-9)
	assert.InDelta(t, 0.5, sum.AvgResponseTime, 1e-9)
	assert.InDelta(t, 2.0, sum.AvgResultsPerQuery, 1e-9)
	assert.InDelta(t, 0.5, sum.ChineseContentRate, 1e-9)
	assert.InDelta(t, 1.0, sum.TierDistribution["excellent"], 1e-9)
	assert.Empty(t, sum.Alerts)
}

func TestSummaryDegraded(t *testing.T) {
	c := NewCollector(0)
	c.Record(okRun("上海咖啡店", 0.5, "startpage"))
	for i := 0; i < 4; i++ {
		c.Record(failedRun("不存在的查询"))
	}
	sum := c.Summary()
	assert.Equal(t, "degraded", sum.Status)
	require.NotEmpty(t, sum.Alerts)
	assert.Equal(t, "performance", sum.Alerts[0].Type)
	assert.Equal(t, "high", sum.Alerts[0].Severity, "success rate 0.2 is below the high-severity cutoff")
}

func TestSummaryUsesRecentWindow(t *testing.T) {
	c := NewCollector(0)
	// Old slow runs fall outside the ten-sample window.
	for i := 0; i < 10; i++ {
		c.Record(okRun("旧查询", 8.0, "startpage"))
	}
	for i := 0; i < 10; i++ {
		c.Record(okRun("新查询", 0.5, "startpage"))
	}
	sum := c.Summary()
	assert.InDelta(t, 0.5, sum.AvgResponseTime, 1e-9)
	for _, a := range sum.Alerts {
		assert.NotContains(t, a.Message, "response time", "stale slow runs must not trigger alerts")
	}
}

func TestCacheEfficiencyAlert(t *testing.T) {
	c := NewCollector(0)
	for i := 0; i < 12; i++ {
		c.Record(okRun("上海咖啡店", 0.5, "startpage"))
	}
	sum := c.Summary()
	var found bool
	for _, a := range sum.Alerts {
		if a.Type == "efficiency" {
			found = true
			assert.Equal(t, "low", a.Severity)
		}
	}
	assert.True(t, found, "expected an efficiency alert: 12 requests, zero cache hits")

	// Cache hits clear the alert.
	for i := 0; i < 12; i++ {
		resp := okRun("上海咖啡店", 0.5, "startpage")
		resp.Performance.CacheHit = true
		c.Record(resp)
	}
	for _, a := range c.Summary().Alerts {
		assert.NotEqual(t, "efficiency", a.Type)
	}
}

func TestSourceStatsEvenSplit(t *testing.T) {
	c := NewCollector(0)
	c.Record(okRun("上海咖啡店", 0.5, "startpage", "bing"))
	c.Record(okRun("上海咖啡店", 0.5, "startpage"))
	c.Record(failedRun("不存在的查询"))

	stats := c.SourceStats()
	require.Contains(t, stats, "startpage")
	require.Contains(t, stats, "bing")

	sp := stats["startpage"]
	assert.Equal(t, 2, sp.Requests)
	assert.Equal(t, 2, sp.Successes)
	// 2 results split over 2 sources, then 2 over 1.
	assert.Equal(t, 3, sp.TotalResults)
	assert.Equal(t, "high", sp.Reliability)
	assert.Equal(t, 1, stats["bing"].TotalResults)
}

func TestExportJSON(t *testing.T) {
	c := NewCollector(0)
	c.Record(okRun("上海咖啡店", 0.5, "startpage"))

	data, err := c.ExportJSON()
	require.NoError(t, err)

	var payload struct {
		Summary Summary  `json:"summary"`
		History []Sample `json:"history"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "healthy", payload.Summary.Status)
	require.Len(t, payload.History, 1)
	assert.Equal(t, "上海咖啡店", payload.History[0].Query)
}

func TestExportCSV(t *testing.T) {
	c := NewCollector(0)
	c.Record(okRun("上海, 咖啡店", 0.5, "startpage"))

	data, err := c.ExportCSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,query,duration_seconds"))
	assert.Contains(t, lines[1], `"上海, 咖啡店"`, "comma in query must be quoted")
}

func TestSortedSourceNames(t *testing.T) {
	c := NewCollector(10)
	c.Record(okRun("上海咖啡店", 0.5, "zhihu", "bing"))
	c.Record(okRun("上海咖啡店", 0.5, "startpage"))

	assert.Equal(t, []string{"bing", "startpage", "zhihu"}, c.SortedSourceNames())
	assert.Empty(t, NewCollector(10).SortedSourceNames())
}

func TestReset(t *testing.T) {
	c := NewCollector(0)
	c.Record(okRun("上海咖啡店", 0.5, "startpage"))
	c.Reset()

	assert.Empty(t, c.History())
	assert.Equal(t, "no_data", c.Summary().Status)
	assert.Empty(t, c.SourceStats())
}
