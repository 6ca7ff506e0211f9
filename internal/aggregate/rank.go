// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// Rank orders results by the mean of business value and relevance,
// highest first. Equal scores keep their input order, so ranking an
// already-ranked list leaves it unchanged. With premiumFirst set, a
// second stable pass moves premium-origin records ahead of the rest
// without re-sorting either partition.
func Rank(results []types.Result, premiumFirst bool) []types.Result {
	ranked := make([]types.Result, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return composite(ranked[i]) > composite(ranked[j])
	})

	if !premiumFirst {
		return ranked
	}
	premium := make([]types.Result, 0, len(ranked))
	rest := make([]types.Result, 0, len(ranked))
	for _, r := range ranked {
		if r.IsPremium {
			premium = append(premium, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(premium, rest...)
}

func composite(r types.Result) float64 {
	return (r.BusinessValueScore + r.RelevanceScore) / 2
}
