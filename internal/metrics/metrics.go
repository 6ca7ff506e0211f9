// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics collects operational statistics about aggregation
// runs: response times, success rates, cache effectiveness, content
// quality, and per-source reliability. Everything stays in memory;
// nothing is reported externally.
package metrics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// DefaultRetention is the number of samples kept when the caller does
// not choose a retention limit.
const DefaultRetention = 100

// recentWindow bounds how many of the newest samples feed the summary,
// so the reported health reflects current behavior rather than the
// whole history.
const recentWindow = 10

// Sample records one completed aggregation run.
type Sample struct {
	Timestamp        time.Time `json:"timestamp"`
	Query            string    `json:"query"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Success          bool      `json:"success"`
	CacheHit         bool      `json:"cache_hit"`
	TotalResults     int       `json:"total_results"`
	ChineseResults   int       `json:"chinese_results"`
	PremiumResults   int       `json:"premium_results"`
	SourcesUsed      []string  `json:"sources_used,omitempty"`
	AvgQualityScore  float64   `json:"avg_quality_score"`
	AvgBusinessValue float64   `json:"avg_business_value"`
	PerformanceTier  string    `json:"performance_tier"`
}

// SourceStats accumulates per-source counters. The result count is an
// even split of each run's total across the sources that run used; it
// is an estimate, not an exact attribution.
type SourceStats struct {
	Requests     int     `json:"requests"`
	Successes    int     `json:"successes"`
	TotalResults int     `json:"total_results"`
	SuccessRate  float64 `json:"success_rate"`
	Reliability  string  `json:"reliability"`
}

// Alert flags a metric that crossed an operational threshold.
type Alert struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// Summary is a point-in-time health report.
type Summary struct {
	Status             string                 `json:"status"`
	TotalSearches      int                    `json:"total_searches"`
	UptimeHours        float64                `json:"uptime_hours"`
	AvgResponseTime    float64                `json:"avg_response_time"`
	SuccessRate        float64                `json:"success_rate"`
	CacheHitRate       float64                `json:"cache_hit_rate"`
	TierDistribution   map[string]float64     `json:"tier_distribution"`
	AvgResultsPerQuery float64                `json:"avg_results_per_query"`
	ChineseContentRate float64                `json:"chinese_content_rate"`
	AvgBusinessValue   float64                `json:"avg_business_value"`
	AvgQualityScore    float64                `json:"avg_quality_score"`
	Sources            map[string]SourceStats `json:"sources,omitempty"`
	Alerts             []Alert                `json:"alerts,omitempty"`
}

// ring is a fixed-capacity FIFO of samples. Callers hold the
// collector's lock; the ring itself does no locking.
type ring struct {
	items []Sample
	head  int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{items: make([]Sample, capacity)}
}

func (r *ring) add(s Sample) {
	r.items[r.head] = s
	r.head = (r.head + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

// snapshot returns samples oldest first.
func (r *ring) snapshot() []Sample {
	out := make([]Sample, 0, r.size)
	if r.size < len(r.items) {
		out = append(out, r.items[:r.size]...)
	} else {
		out = append(out, r.items[r.head:]...)
		out = append(out, r.items[:r.head]...)
	}
	return out
}

func (r *ring) clear() {
	r.head = 0
	r.size = 0
}

// Collector accumulates samples and running totals. Safe for
// concurrent use.
type Collector struct {
	mu      sync.Mutex
	history *ring
	start   time.Time

	totalRequests int
	successful    int
	cacheHits     int

	sources map[string]*sourceCounters
}

type sourceCounters struct {
	requests     int
	successes    int
	totalResults int
}

// NewCollector builds a collector retaining up to retention samples.
// Non-positive retention falls back to DefaultRetention.
func NewCollector(retention int) *Collector {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Collector{
		history: newRing(retention),
		start:   time.Now().UTC(),
		sources: make(map[string]*sourceCounters),
	}
}

// Record captures one completed aggregation and returns the stored
// sample.
func (c *Collector) Record(resp types.Response) Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	if resp.Success {
		c.successful++
	}
	if resp.Performance.CacheHit {
		c.cacheHits++
	}

	for _, name := range resp.SourcesUsed {
		sc, ok := c.sources[name]
		if !ok {
			sc = &sourceCounters{}
			c.sources[name] = sc
		}
		sc.requests++
		if resp.Success {
			sc.successes++
		}
		// Even split across the sources this run used; an estimate.
		sc.totalResults += resp.TotalResults / len(resp.SourcesUsed)
	}

	s := Sample{
		Timestamp:        time.Now().UTC(),
		Query:            resp.Query,
		DurationSeconds:  resp.Performance.DurationSeconds,
		Success:          resp.Success,
		CacheHit:         resp.Performance.CacheHit,
		TotalResults:     resp.TotalResults,
		ChineseResults:   resp.ChineseResults,
		PremiumResults:   resp.PremiumResults,
		SourcesUsed:      append([]string(nil), resp.SourcesUsed...),
		AvgQualityScore:  avgScore(resp.Results, func(r types.Result) float64 { return r.ContentQualityScore }),
		AvgBusinessValue: avgScore(resp.Results, func(r types.Result) float64 { return r.BusinessValueScore }),
		PerformanceTier:  Tier(resp.Performance.DurationSeconds),
	}
	c.history.add(s)
	return s
}

// Tier classifies a run's wall-clock duration in seconds.
func Tier(seconds float64) string {
	switch {
	case seconds < 1.0:
		return "excellent"
	case seconds < 3.0:
		return "good"
	case seconds < 6.0:
		return "acceptable"
	default:
		return "slow"
	}
}

// Summary reports current health. Rolling averages cover the most
// recent samples only; totals and the cache-hit rate cover the whole
// run of the process.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.history.snapshot()
	if len(all) == 0 {
		return Summary{Status: "no_data"}
	}

	recent := all
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var (
		sumDuration float64
		successes   int
		sumResults  int
		sumChinese  int
		sumQuality  float64
		sumBusiness float64
		tiers       = map[string]int{}
	)
	for _, s := range recent {
		sumDuration += s.DurationSeconds
		if s.Success {
			successes++
		}
		sumResults += s.TotalResults
		sumChinese += s.ChineseResults
		sumQuality += s.AvgQualityScore
		sumBusiness += s.AvgBusinessValue
		tiers[s.PerformanceTier]++
	}

	n := float64(len(recent))
	avgDuration := sumDuration / n
	successRate := float64(successes) / n
	cacheHitRate := float64(c.cacheHits) / float64(max(c.totalRequests, 1))
	chineseRate := float64(sumChinese) / float64(max(sumResults, 1))

	tierDist := make(map[string]float64, len(tiers))
	for tier, count := range tiers {
		tierDist[tier] = float64(count) / n
	}

	status := "healthy"
	if successRate < 0.8 {
		status = "degraded"
	}

	return Summary{
		Status:             status,
		TotalSearches:      c.totalRequests,
		UptimeHours:        time.Since(c.start).Hours(),
		AvgResponseTime:    avgDuration,
		SuccessRate:        successRate,
		CacheHitRate:       cacheHitRate,
		TierDistribution:   tierDist,
		AvgResultsPerQuery: float64(sumResults) / n,
		ChineseContentRate: chineseRate,
		AvgBusinessValue:   sumBusiness / n,
		AvgQualityScore:    sumQuality / n,
		Sources:            c.sourceStatsLocked(),
		Alerts:             c.alertsLocked(successRate, avgDuration, cacheHitRate),
	}
}

// SourceStats reports per-source counters and reliability.
func (c *Collector) SourceStats() map[string]SourceStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceStatsLocked()
}

func (c *Collector) sourceStatsLocked() map[string]SourceStats {
	out := make(map[string]SourceStats, len(c.sources))
	for name, sc := range c.sources {
		if sc.requests == 0 {
			continue
		}
		rate := float64(sc.successes) / float64(sc.requests)
		out[name] = SourceStats{
			Requests:     sc.requests,
			Successes:    sc.successes,
			TotalResults: sc.totalResults,
			SuccessRate:  rate,
			Reliability:  reliability(rate),
		}
	}
	return out
}

func reliability(successRate float64) string {
	switch {
	case successRate >= 0.9:
		return "high"
	case successRate >= 0.7:
		return "medium"
	default:
		return "low"
	}
}

func (c *Collector) alertsLocked(successRate, avgDuration, cacheHitRate float64) []Alert {
	var alerts []Alert
	if successRate < 0.8 {
		severity := "medium"
		if successRate < 0.6 {
			severity = "high"
		}
		alerts = append(alerts, Alert{
			Type:           "performance",
			Severity:       severity,
			Message:        fmt.Sprintf("success rate below threshold: %.0f%%", successRate*100),
			Recommendation: "check source connectivity and error rates",
		})
	}
	if avgDuration > 5.0 {
		alerts = append(alerts, Alert{
			Type:           "performance",
			Severity:       "medium",
			Message:        fmt.Sprintf("average response time high: %.1fs", avgDuration),
			Recommendation: "enable parallel mode or trim the source list",
		})
	}
	if cacheHitRate < 0.1 && c.totalRequests > 10 {
		alerts = append(alerts, Alert{
			Type:           "efficiency",
			Severity:       "low",
			Message:        fmt.Sprintf("low cache hit rate: %.0f%%", cacheHitRate*100),
			Recommendation: "review cache TTL settings",
		})
	}
	return alerts
}

// History returns retained samples, oldest first.
func (c *Collector) History() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.snapshot()
}

// Reset drops all samples and counters.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.clear()
	c.start = time.Now().UTC()
	c.totalRequests = 0
	c.successful = 0
	c.cacheHits = 0
	c.sources = make(map[string]*sourceCounters)
}

// export is the JSON export envelope.
type export struct {
	ExportTimestamp time.Time              `json:"export_timestamp"`
	Summary         Summary                `json:"summary"`
	History         []Sample               `json:"history"`
	Sources         map[string]SourceStats `json:"sources"`
}

// ExportJSON serializes the summary, retained history, and per-source
// stats for external analysis.
func (c *Collector) ExportJSON() ([]byte, error) {
	payload := export{
		ExportTimestamp: time.Now().UTC(),
		Summary:         c.Summary(),
		History:         c.History(),
		Sources:         c.SourceStats(),
	}
	return json.MarshalIndent(payload, "", "  ")
}

// ExportCSV serializes the retained history as CSV, oldest first.
func (c *Collector) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "query", "duration_seconds", "success", "total_results", "chinese_results", "tier"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, s := range c.History() {
		row := []string{
			s.Timestamp.Format(time.RFC3339),
			s.Query,
			strconv.FormatFloat(s.DurationSeconds, 'f', 3, 64),
			strconv.FormatBool(s.Success),
			strconv.Itoa(s.TotalResults),
			strconv.Itoa(s.ChineseResults),
			s.PerformanceTier,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func avgScore(results []types.Result, score func(types.Result) float64) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += score(r)
	}
	return sum / float64(len(results))
}

// SortedSourceNames returns the tracked source names in stable order,
// for deterministic CLI output.
func (c *Collector) SortedSourceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
