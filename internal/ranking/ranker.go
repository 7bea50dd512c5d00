package ranking

import (
	"github.com/kalambet/civic/internal/collections"
)

// Ranker scores candidates against an interaction history and returns the
// best ones in descending score order. It holds no state between calls.
type Ranker struct {
	weights Weights
	clock   Clock
}

// NewRanker returns a Ranker using DefaultWeights and the wall clock.
func NewRanker() *Ranker {
	return &Ranker{weights: DefaultWeights(), clock: SystemClock{}}
}

// NewRankerWithClock returns a Ranker with custom weights and clock (for testing).
func NewRankerWithClock(w Weights, clock Clock) *Ranker {
	return &Ranker{weights: w, clock: clock}
}

// Weights returns the weights the ranker scores with.
func (r *Ranker) Weights() Weights { return r.weights }

// Rank scores every candidate, queues those with a positive score by score,
// and drains the top n (DefaultTopN when n <= 0). Equal scores keep the
// order of candidates.
func Rank[T Candidate](r *Ranker, candidates []T, history []Interaction, n int) []Scored[T] {
	if n <= 0 {
		n = DefaultTopN
	}
	now := r.clock.Now()

	q := collections.NewPriorityQueue[T]()
	for _, c := range candidates {
		score := r.weights.Score(c.Signals(), history, now)
		// Stored priorities are >= 1, so nothing is dropped here in practice.
		if score > 0 {
			q.Enqueue(c, score)
		}
	}

	out := make([]Scored[T], 0, min(n, q.Len()))
	for q.Any() && len(out) < n {
		it, err := q.DequeueItem()
		if err != nil {
			break
		}
		out = append(out, Scored[T]{Candidate: it.Value, Score: it.Priority})
	}
	return out
}
