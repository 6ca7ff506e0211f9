// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the sinoseek
// aggregation pipeline.
package types

import "time"

// Result represents one piece of discovered content after enrichment.
// All derived scores are computed once at construction from title, URL,
// and description; the only later mutation is the one-time direct-site
// boost applied during a hybrid merge.
type Result struct {
	// Title is the content title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// URL points at the content on the originating site.
	URL string `json:"url" yaml:"url"`

	// Description is the snippet or excerpt shown by the source.
	Description string `json:"description" yaml:"description"`

	// Source identifies which adapter found this result (e.g. "bing", "zhihu").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0 and 100 computed from query
	// matching and result position at extraction time.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// ChineseContent reports whether the Chinese ratio exceeds 0.3.
	ChineseContent bool `json:"chinese_content" yaml:"chinese_content"`

	// ChineseRatio is the share of CJK text in title+description, 0 to 1.
	ChineseRatio float64 `json:"chinese_ratio" yaml:"chinese_ratio"`

	// IsPremium reports whether the URL host matches a known high-value domain.
	IsPremium bool `json:"is_premium" yaml:"is_premium"`

	// ContentQualityScore rates text quality, 0 to 100.
	ContentQualityScore float64 `json:"content_quality_score" yaml:"content_quality_score"`

	// BusinessValueScore rates commercial value, 0 to 100.
	BusinessValueScore float64 `json:"business_value_score" yaml:"business_value_score"`

	// ExtractedAt is the enrichment timestamp.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`

	// FromDirectSite is set during hybrid merge for records that came from
	// a direct-site adapter rather than a search engine.
	FromDirectSite bool `json:"from_direct_site,omitempty" yaml:"from_direct_site,omitempty"`
}

// Performance carries execution metadata for one aggregation call.
type Performance struct {
	// DurationSeconds is the wall-clock time of the call.
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`

	// Parallel reports whether the fan-out ran concurrently.
	Parallel bool `json:"parallel" yaml:"parallel"`

	// CacheHit reports whether the response was served from cache.
	CacheHit bool `json:"cache_hit" yaml:"cache_hit"`

	// SourcesAttempted is the number of adapters the call dispatched to.
	SourcesAttempted int `json:"sources_attempted" yaml:"sources_attempted"`
}

// Response is the outcome of one query against one adapter set.
// Success is true exactly when Results is non-empty, and TotalResults
// always equals len(Results).
type Response struct {
	Query string `json:"query" yaml:"query"`

	Success bool `json:"success" yaml:"success"`

	// Results is ordered by rank, best first.
	Results []Result `json:"results" yaml:"results"`

	TotalResults   int `json:"total_results" yaml:"total_results"`
	ChineseResults int `json:"chinese_results" yaml:"chinese_results"`
	PremiumResults int `json:"premium_results" yaml:"premium_results"`

	// SourcesUsed lists the adapters that contributed at least one result.
	SourcesUsed []string `json:"sources_used" yaml:"sources_used"`

	// ErrorReason is set when Success is false.
	ErrorReason string `json:"error_reason,omitempty" yaml:"error_reason,omitempty"`

	// FallbackSuggestions guide query reformulation after a total failure.
	FallbackSuggestions []string `json:"fallback_suggestions,omitempty" yaml:"fallback_suggestions,omitempty"`

	Performance Performance `json:"performance" yaml:"performance"`
}

// Tally recomputes the count fields and success flag from Results.
func (r *Response) Tally() {
	r.TotalResults = len(r.Results)
	r.ChineseResults = 0
	r.PremiumResults = 0
	for _, res := range r.Results {
		if res.ChineseContent {
			r.ChineseResults++
		}
		if res.IsPremium {
			r.PremiumResults++
		}
	}
	r.Success = r.TotalResults > 0
}
