package app

import (
	"sort"
	"time"

	"review_pulse/internal/domain"
)

type dedupeKey struct {
	author    string
	anonymous bool
	text      string
	at        string
}

// sortAndDedupe orders rows newest first (rows without a timestamp last) and
// keeps only the first row of every (author, text, timestamp) triple.
func sortAndDedupe(rows []domain.Review) []domain.Review {
	sorted := make([]domain.Review, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].At, sorted[j].At
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})

	seen := make(map[dedupeKey]struct{}, len(sorted))
	out := sorted[:0]
	for _, rv := range sorted {
		k := dedupeKey{text: rv.Text, at: rv.At.Format(time.RFC3339Nano), anonymous: rv.Author == nil}
		if rv.Author != nil {
			k.author = *rv.Author
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rv)
	}
	return out
}
