package rotation

import (
	"fmt"
	"sort"
	"strings"
)

// Bundle is a group of common-area chores handed to one member per week.
type Bundle struct {
	ID     string   `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Chores []string `json:"chores" yaml:"chores"`
}

// BuildBundles partitions chore titles into at most memberCount bundles.
//
// Titles are sorted and deduplicated first so the same set always yields the
// same partition regardless of input order. Sizes differ by at most one, with
// the larger bundles first.
func BuildBundles(titles []string, memberCount int) []Bundle {
	sorted := uniqueSorted(titles)
	if memberCount <= 0 || len(sorted) == 0 {
		return nil
	}

	count := min(memberCount, len(sorted))
	base := len(sorted) / count
	remainder := len(sorted) % count

	bundles := make([]Bundle, 0, count)
	next := 0
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		chores := sorted[next : next+size]
		next += size

		bundles = append(bundles, Bundle{
			ID:     "bundle-" + ordinalLabel(i),
			Title:  bundleTitle(i, chores),
			Chores: chores,
		})
	}
	return bundles
}

func uniqueSorted(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func bundleTitle(i int, chores []string) string {
	switch {
	case len(chores) == 1:
		return chores[0]
	case len(chores) <= 3:
		return fmt.Sprintf("Common Areas Pack %s (%s)", ordinalLabel(i), strings.Join(chores, " + "))
	default:
		return fmt.Sprintf("Common Areas Pack %s (%d tasks)", ordinalLabel(i), len(chores))
	}
}

// ordinalLabel maps 0..25 to A..Z and continues with 1-based numbers (27, 28, ...).
func ordinalLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}
