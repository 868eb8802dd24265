package rank

import (
	"cmp"
	"slices"

	"docrank/internal/domain"
)

// DefaultTopK is the selection width used when none is given.
const DefaultTopK = 5

// Select picks a diverse top-k: at most one unit per document, highest score
// first.
//
// Units are stably sorted by descending score and scanned in that order; the
// first unit seen for a document is kept, so exact ties inside a document go
// to the earlier unit in input order. Scanning stops once topK documents are
// held. The kept units are sorted by score again before returning. Fewer than
// topK documents yields fewer results; empty input yields an empty slice.
func Select(units []domain.TextUnit, topK int) []domain.TextUnit {
	if topK <= 0 {
		topK = DefaultTopK
	}
	ordered := slices.Clone(units)
	sortByScore(ordered)

	picked := make([]domain.TextUnit, 0, min(topK, len(units)))
	seen := make(map[string]struct{}, topK)
	for _, u := range ordered {
		if len(picked) == topK {
			break
		}
		if _, ok := seen[u.Document]; ok {
			continue
		}
		seen[u.Document] = struct{}{}
		picked = append(picked, u)
	}
	sortByScore(picked)
	return picked
}

func sortByScore(units []domain.TextUnit) {
	slices.SortStableFunc(units, func(a, b domain.TextUnit) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
