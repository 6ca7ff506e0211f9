// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hybrid exposes the top-level aggregation agent. It owns the
// fan-out engine, the adapter sets, the response cache, and the metrics
// collector, and merges search-engine results with direct Chinese site
// results into a single ranked response.
package hybrid

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/sinoseek/internal/adapter"
	"github.com/pdiddy/sinoseek/internal/aggregate"
	"github.com/pdiddy/sinoseek/internal/cache"
	"github.com/pdiddy/sinoseek/internal/metrics"
	"github.com/pdiddy/sinoseek/pkg/types"
)

// directSiteBoostCeiling: site records already scoring at or above this
// get no merge boost.
const directSiteBoostCeiling = 80

// directSiteBoost is added once to a site record's business value when
// it first enters a hybrid merge.
const directSiteBoost = 15

// Agent runs aggregations against search engines, direct Chinese
// sites, or both, with caching and metrics around every call.
type Agent struct {
	cfg     types.Config
	log     *zap.Logger
	client  *http.Client
	engine  *aggregate.Engine
	engines []adapter.Adapter
	sites   []adapter.Adapter
	cache   *cache.ResultCache
	metrics *metrics.Collector
}

// Credentials holds the optional secrets an agent consumes: per-site
// session cookies and an outbound proxy. Empty fields are ignored.
type Credentials struct {
	ZhihuCookie  string
	DoubanCookie string
	ProxyURL     string
}

// New builds an agent over the default engine and site adapter sets.
// All credentials may be empty; the adapters then run unauthenticated
// and traffic goes out directly. A nil logger falls back to a no-op
// logger.
func New(cfg types.Config, log *zap.Logger, creds Credentials) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Performance.OverallTimeout}
	if creds.ProxyURL != "" {
		if u, err := url.Parse(creds.ProxyURL); err == nil && u.Scheme != "" {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		} else {
			log.Warn("ignoring unparseable proxy url", zap.String("proxy_url", creds.ProxyURL))
		}
	}
	siteCreds := adapter.SiteCredentials{
		ZhihuCookie:  creds.ZhihuCookie,
		DoubanCookie: creds.DoubanCookie,
	}
	return newAgent(cfg, log, client,
		adapter.NewEngineAdapters(client),
		adapter.NewSiteAdapters(client, siteCreds))
}

// NewWithAdapters builds an agent over explicit adapter sets instead
// of the defaults. A nil logger falls back to a no-op logger.
func NewWithAdapters(cfg types.Config, log *zap.Logger, engines, sites []adapter.Adapter) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return newAgent(cfg, log, &http.Client{Timeout: cfg.Performance.OverallTimeout}, engines, sites)
}

func newAgent(cfg types.Config, log *zap.Logger, client *http.Client, engines, sites []adapter.Adapter) *Agent {
	return &Agent{
		cfg:     cfg,
		log:     log,
		client:  client,
		engine:  aggregate.New(cfg, log),
		engines: engines,
		sites:   sites,
		cache:   cache.New(cache.DefaultCapacity, cfg.Performance.CacheTTL),
		metrics: metrics.NewCollector(metrics.DefaultRetention),
	}
}

// Metrics exposes the collector for reporting commands.
func (a *Agent) Metrics() *metrics.Collector { return a.metrics }

// PurgeCache empties the response cache.
func (a *Agent) PurgeCache() { a.cache.Purge() }

// Close releases pooled connections.
func (a *Agent) Close() {
	a.client.CloseIdleConnections()
}

// Aggregate runs one query against the configured search engines.
// A cached response for an equivalent query is returned without
// touching any source. Every call, cached or not, is recorded in the
// metrics collector.
func (a *Agent) Aggregate(ctx context.Context, query string, limit int) types.Response {
	if limit <= 0 {
		limit = a.cfg.Business.MaxResults
	}
	selected := adapter.ByPriority(a.engines, a.cfg.Business.PrioritySources)
	key := cache.Key(query, limit, adapter.Names(selected))

	start := time.Now()
	if resp, ok := a.cache.Get(key); ok {
		resp.Performance.CacheHit = true
		resp.Performance.DurationSeconds = time.Since(start).Seconds()
		a.log.Debug("cache hit", zap.String("query", query))
		a.metrics.Record(resp)
		return resp
	}

	resp := a.run(ctx, query, selected, limit)
	resp.Performance.DurationSeconds = time.Since(start).Seconds()

	a.cache.Add(key, resp)
	a.metrics.Record(resp)
	a.log.Info("aggregation complete",
		zap.String("query", query),
		zap.Int("results", resp.TotalResults),
		zap.Strings("sources", resp.SourcesUsed),
		zap.Float64("seconds", resp.Performance.DurationSeconds))
	return resp
}

// HybridAggregate runs the query against search engines and direct
// Chinese sites independently, then merges both result sets. Site
// records get a one-time business-value boost and rank with bonuses
// for Chinese content, premium domains, and quality. Hybrid responses
// are not cached; the two inner passes hit the sources directly.
func (a *Agent) HybridAggregate(ctx context.Context, query string, limit int) types.Response {
	if limit <= 0 {
		limit = a.cfg.Business.MaxResults
	}
	start := time.Now()

	engineResp := a.run(ctx, query, adapter.ByPriority(a.engines, a.cfg.Business.PrioritySources), limit)
	siteResp := a.run(ctx, query, a.sites, limit)

	resp := Merge(query, engineResp, siteResp, limit)
	resp.Performance.Parallel = a.cfg.Performance.Parallel
	resp.Performance.SourcesAttempted = engineResp.Performance.SourcesAttempted + siteResp.Performance.SourcesAttempted
	resp.Performance.DurationSeconds = time.Since(start).Seconds()

	a.metrics.Record(resp)
	a.log.Info("hybrid aggregation complete",
		zap.String("query", query),
		zap.Int("engine_results", engineResp.TotalResults),
		zap.Int("site_results", siteResp.TotalResults),
		zap.Int("merged", resp.TotalResults),
		zap.Float64("seconds", resp.Performance.DurationSeconds))
	return resp
}

func (a *Agent) run(ctx context.Context, query string, adapters []adapter.Adapter, limit int) types.Response {
	if a.cfg.Performance.Parallel {
		return a.engine.Run(ctx, query, adapters, limit)
	}
	return a.engine.RunSequential(ctx, query, adapters, limit)
}

// Merge combines an engine-side and a site-side response. Engine
// records keep their order ahead of site records going into dedupe, so
// on a title or URL collision the engine copy survives. Re-merging a
// merged response does not boost any record twice.
func Merge(query string, engineResp, siteResp types.Response, limit int) types.Response {
	merged := make([]types.Result, 0, len(engineResp.Results)+len(siteResp.Results))
	merged = append(merged, engineResp.Results...)
	for _, r := range siteResp.Results {
		merged = append(merged, boostDirect(r))
	}

	resp := types.Response{Query: query}
	resp.SourcesUsed = append(append([]string{}, engineResp.SourcesUsed...), siteResp.SourcesUsed...)

	if len(merged) == 0 {
		resp.Success = false
		resp.ErrorReason = aggregate.ErrNoResults
		resp.FallbackSuggestions = Suggestions(query)
		return resp
	}

	unique := aggregate.DedupeWithURL(merged)
	sort.SliceStable(unique, func(i, j int) bool {
		return HybridScore(unique[i]) > HybridScore(unique[j])
	})
	if len(unique) > limit {
		unique = unique[:limit]
	}
	resp.Results = unique
	resp.Tally()
	// Dedupe can drop every record when all titles are too short to key.
	if !resp.Success {
		resp.ErrorReason = aggregate.ErrNoResults
		resp.FallbackSuggestions = Suggestions(query)
	}
	return resp
}

// boostDirect marks a record as coming from a direct site and applies
// the merge boost exactly once. Records already marked pass through
// unchanged.
func boostDirect(r types.Result) types.Result {
	if r.FromDirectSite {
		return r
	}
	if r.BusinessValueScore < directSiteBoostCeiling {
		r.BusinessValueScore += directSiteBoost
	}
	r.FromDirectSite = true
	return r
}

// HybridScore ranks a merged record: business value plus flat bonuses
// for Chinese content, direct-site origin, premium domains, quality,
// and Chinese-text density.
func HybridScore(r types.Result) float64 {
	score := r.BusinessValueScore
	if r.ChineseContent {
		score += 10
	}
	if r.FromDirectSite {
		score += 15
	}
	if r.IsPremium {
		score += 20
	}
	switch {
	case r.ContentQualityScore > 70:
		score += 10
	case r.ContentQualityScore > 50:
		score += 5
	}
	switch {
	case r.ChineseRatio > 0.8:
		score += 15
	case r.ChineseRatio > 0.5:
		score += 8
	}
	return score
}

// shortQueryRunes: queries below this length get a "be more specific"
// suggestion.
const shortQueryRunes = 5

// Suggestions proposes exactly three query reformulations after a run
// with no results. Query-specific advice ranks ahead of the generic
// fallbacks, and the output is deterministic for a given query.
func Suggestions(query string) []string {
	var out []string
	if utf8.RuneCountInString(query) < shortQueryRunes {
		out = append(out, "Try using longer, more descriptive queries")
	}
	if !containsHan(query) {
		out = append(out, "Try using Chinese characters instead of English")
	}
	generic := []string{
		"Try using more specific Chinese keywords",
		"Try shorter, more common search terms",
		"Use brand names or location names in Chinese",
	}
	for _, s := range generic {
		if len(out) == 3 {
			break
		}
		out = append(out, s)
	}
	return out[:3]
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
