package ticket

import "slices"

// EffectiveWorkflows picks the workflow list a query is scoped to: the
// explicit filter when set, every workflow while a search is active, and
// otherwise every workflow except the closed ones.
func EffectiveWorkflows(explicit []string, searchActive bool, all, closed []string) []string {
	if len(explicit) > 0 {
		return slices.Clone(explicit)
	}
	if searchActive {
		return slices.Clone(all)
	}
	out := make([]string, 0, len(all))
	for _, w := range all {
		if !slices.Contains(closed, w) {
			out = append(out, w)
		}
	}
	return out
}
