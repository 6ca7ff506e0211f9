// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the derived quality, business-value, and
// relevance scores for discovered content. Every function here is a
// deterministic pure function of its text inputs, so enrichment can be
// re-run on identical input and produce identical scores.
package score

import (
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// chineseThresholdDefault flags content as Chinese when the CJK ratio
// exceeds it.
const chineseThresholdDefault = 0.3

// minTitleRunes rejects candidates whose title is too short to carry signal.
const minTitleRunes = 6

// cjkPunct covers CJK symbols/punctuation and the fullwidth punctuation
// blocks, excluding fullwidth digits and letters.
var cjkPunct = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3000, Hi: 0x303F, Stride: 1},
		{Lo: 0xFF01, Hi: 0xFF0F, Stride: 1},
		{Lo: 0xFF1A, Hi: 0xFF20, Stride: 1},
		{Lo: 0xFF3B, Hi: 0xFF40, Stride: 1},
		{Lo: 0xFF5B, Hi: 0xFF65, Stride: 1},
	},
}

// premiumDomains maps known high-value Chinese platforms to their
// business-value bonus tier. More specific hosts are listed alongside
// their parent domain and win during lookup.
var premiumDomains = map[string]float64{
	"zhihu.com":        35,
	"douban.com":       30,
	"xiaohongshu.com":  30,
	"zhidao.baidu.com": 28,
	"taobao.com":       25,
	"jd.com":           25,
	"bilibili.com":     22,
	"weibo.com":        20,
	"baike.baidu.com":  18,
	"163.com":          15,
	"sina.com.cn":      15,
	"tieba.baidu.com":  12,
	"sohu.com":         12,
}

// ChineseRatio returns the share of CJK text in s: CJK ideographs count
// fully, CJK punctuation counts half, against all non-whitespace code
// points. Empty or whitespace-only input yields 0.
func ChineseRatio(s string) float64 {
	var cjk float64
	var total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Han, r):
			cjk++
		case unicode.Is(cjkPunct, r):
			cjk += 0.5
		}
	}
	if total == 0 {
		return 0
	}
	return cjk / float64(total)
}

// PremiumBonus returns the business-value bonus for the URL's host and
// whether the host matched the premium table. Subdomain labels are
// stripped until a table entry matches, so "www.zhihu.com" resolves to
// the zhihu.com tier while "zhidao.baidu.com" keeps its own.
func PremiumBonus(rawURL string) (float64, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return 0, false
	}
	host := strings.ToLower(u.Hostname())
	for host != "" {
		if bonus, ok := premiumDomains[host]; ok {
			return bonus, true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return 0, false
}

// ContentQuality rates text quality from 50 to 100 based on title and
// description length plus a Chinese-content bonus.
func ContentQuality(title, description string, chinese bool) float64 {
	s := 50.0
	if utf8.RuneCountInString(title) > 20 {
		s += 10
	}
	if utf8.RuneCountInString(title) > 50 {
		s += 10
	}
	if utf8.RuneCountInString(description) > 100 {
		s += 15
	}
	if utf8.RuneCountInString(description) > 300 {
		s += 10
	}
	if chinese {
		s += 15
	}
	return cap100(s)
}

// BusinessValue rates commercial value from the premium-domain tier, the
// Chinese ratio, content quality, and combined text length.
func BusinessValue(title, description string, domainBonus, ratio, quality float64) float64 {
	s := 35.0 + domainBonus + ratio*25
	switch {
	case ratio > 0.8:
		s += 10
	case ratio > 0.6:
		s += 5
	}
	s += quality * 0.12
	combined := utf8.RuneCountInString(title) + utf8.RuneCountInString(description)
	switch {
	case combined > 400:
		s += 8
	case combined > 200:
		s += 5
	}
	return cap100(s)
}

// Relevance scores a candidate against the query from its position in
// the source page and query/text substring matches.
func Relevance(query, title, description string, position int) float64 {
	s := float64(20 - 2*position)
	if s < 0 {
		s = 0
	}
	q := strings.ToLower(query)
	if q != "" {
		if strings.Contains(strings.ToLower(title), q) {
			s += 25
		}
		if strings.Contains(strings.ToLower(description), q) {
			s += 15
		}
	}
	s += ChineseRatio(title+" "+description) * 30
	return cap100(s)
}

// Input carries one raw candidate into enrichment.
type Input struct {
	Title       string
	URL         string
	Description string
	Source      string
	Query       string
	Position    int
}

// Enrich builds a fully scored Result from a raw candidate. It returns
// false when the candidate is rejected: title shorter than six runes, or
// content quality below qualityThreshold. A chineseThreshold of 0 uses
// the default (0.3).
func Enrich(in Input, qualityThreshold, chineseThreshold float64) (types.Result, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) < minTitleRunes {
		return types.Result{}, false
	}
	if chineseThreshold <= 0 {
		chineseThreshold = chineseThresholdDefault
	}

	ratio := ChineseRatio(in.Title + " " + in.Description)
	chinese := ratio > chineseThreshold
	bonus, premium := PremiumBonus(in.URL)
	quality := ContentQuality(in.Title, in.Description, chinese)
	if quality < qualityThreshold {
		return types.Result{}, false
	}

	return types.Result{
		Title:               strings.TrimSpace(in.Title),
		URL:                 in.URL,
		Description:         in.Description,
		Source:              in.Source,
		RelevanceScore:      Relevance(in.Query, in.Title, in.Description, in.Position),
		ChineseContent:      chinese,
		ChineseRatio:        ratio,
		IsPremium:           premium,
		ContentQualityScore: quality,
		BusinessValueScore:  BusinessValue(in.Title, in.Description, bonus, ratio, quality),
		ExtractedAt:         time.Now().UTC(),
	}, true
}

func cap100(s float64) float64 {
	if s > 100 {
		return 100
	}
	return s
}
