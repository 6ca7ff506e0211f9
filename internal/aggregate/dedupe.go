// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// minTitleKeyRunes: records whose normalized title is this short are too
// generic to dedupe reliably and too low-signal to keep.
const minTitleKeyRunes = 10

// NormalizeTitle lowercases the title, strips everything that is not a
// letter, digit, or whitespace, and trims the ends.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Dedupe drops records that repeat an earlier record's normalized title.
// The first occurrence wins regardless of source quality, so upstream
// concatenation order (priority adapter first) decides which copy
// survives. Records with a normalized title of ten runes or fewer are
// dropped outright. Running Dedupe on its own output is a fixed point.
func Dedupe(results []types.Result) []types.Result {
	return dedupe(results, false)
}

// DedupeWithURL behaves like Dedupe but additionally drops a record
// whose URL matches an already-accepted record, even under a different
// title. Used by the hybrid merge phase.
func DedupeWithURL(results []types.Result) []types.Result {
	return dedupe(results, true)
}

func dedupe(results []types.Result, byURL bool) []types.Result {
	seenTitles := make(map[string]struct{}, len(results))
	seenURLs := make(map[string]struct{}, len(results))
	var unique []types.Result

	for _, r := range results {
		titleKey := NormalizeTitle(r.Title)
		if utf8.RuneCountInString(titleKey) <= minTitleKeyRunes {
			continue
		}
		if _, dup := seenTitles[titleKey]; dup {
			continue
		}
		urlKey := strings.ToLower(strings.TrimSpace(r.URL))
		if byURL && urlKey != "" {
			if _, dup := seenURLs[urlKey]; dup {
				continue
			}
		}

		seenTitles[titleKey] = struct{}{}
		if urlKey != "" {
			seenURLs[urlKey] = struct{}{}
		}
		unique = append(unique, r)
	}
	return unique
}
