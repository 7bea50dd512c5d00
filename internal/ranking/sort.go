package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kalambet/civic/internal/collections"
)

// Sort orders accepted by SortBy.
const (
	SortDate       = "date"
	SortPriority   = "priority"
	SortPopularity = "popularity"
)

// SortBy returns candidates ordered for display. "priority" drains a
// priority queue keyed by Priority, "popularity" orders by views descending,
// anything else orders by date ascending. All orders are stable.
func SortBy[T Candidate](candidates []T, order string) *collections.Sequence[T] {
	out := &collections.Sequence[T]{}

	switch strings.ToLower(order) {
	case SortPriority:
		q := collections.NewPriorityQueue[T]()
		for _, c := range candidates {
			q.Enqueue(c, c.Signals().Priority)
		}
		for q.Any() {
			v, err := q.Dequeue()
			if err != nil {
				break
			}
			out.Add(v)
		}
		return out

	case SortPopularity:
		sorted := slices.Clone(candidates)
		slices.SortStableFunc(sorted, func(a, b T) int {
			return cmp.Compare(b.Signals().Views, a.Signals().Views)
		})
		out.AddRange(slices.Values(sorted))
		return out

	default:
		sorted := slices.Clone(candidates)
		slices.SortStableFunc(sorted, func(a, b T) int {
			return a.Signals().Date.Compare(b.Signals().Date)
		})
		out.AddRange(slices.Values(sorted))
		return out
	}
}
