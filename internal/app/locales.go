package app

import (
	"sort"
	"strings"

	"review_pulse/internal/domain"
)

// ParseLocales turns "gb, us, , US" into ["gb","us"]: trimmed, lowercased,
// deduplicated and sorted. An input with no usable code is rejected.
func ParseLocales(input string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, tok := range strings.Split(input, ",") {
		code := strings.ToLower(strings.TrimSpace(tok))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoLocales
	}
	sort.Strings(out)
	return out, nil
}
