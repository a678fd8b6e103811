package transcache

import (
	"cmp"
	"slices"
)

func groupEntries(entries map[string]Entry) []GroupCount {
	counts := make(map[[2]string]int)
	for _, entry := range entries {
		counts[[2]string{entry.Engine, entry.Lang}]++
	}
	groups := make([]GroupCount, 0, len(counts))
	for key, count := range counts {
		groups = append(groups, GroupCount{Engine: key[0], Lang: key[1], Count: count})
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []GroupCount) {
	slices.SortFunc(groups, func(a, b GroupCount) int {
		if c := cmp.Compare(a.Engine, b.Engine); c != 0 {
			return c
		}
		return cmp.Compare(a.Lang, b.Lang)
	})
}
