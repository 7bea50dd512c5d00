package collections

import "iter"

// PriorityItem pairs a value with its integer priority.
type PriorityItem[T any] struct {
	Value    T
	Priority int
}

// PriorityQueue keeps items in non-increasing priority order. Items with equal
// priority leave in the order they were enqueued.
type PriorityQueue[T any] struct {
	items Sequence[PriorityItem[T]]
}

// NewPriorityQueue returns an empty priority queue.
func NewPriorityQueue[T any]() *PriorityQueue[T] { return &PriorityQueue[T]{} }

// Len returns the number of queued items.
func (q *PriorityQueue[T]) Len() int { return q.items.Len() }

// Any reports whether the queue is non-empty.
func (q *PriorityQueue[T]) Any() bool { return q.items.Any() }

// Enqueue inserts v immediately before the first item with a strictly lower
// priority, or at the end if there is none. O(n).
func (q *PriorityQueue[T]) Enqueue(v T, priority int) {
	q.items.insertBeforeFirst(PriorityItem[T]{Value: v, Priority: priority}, func(it PriorityItem[T]) bool {
		return it.Priority < priority
	})
}

// Dequeue removes and returns the highest-priority value.
func (q *PriorityQueue[T]) Dequeue() (T, error) {
	it, err := q.DequeueItem()
	return it.Value, err
}

// DequeueItem removes and returns the front item along with its priority.
func (q *PriorityQueue[T]) DequeueItem() (PriorityItem[T], error) {
	it, ok := q.items.removeFirst()
	if !ok {
		return it, ErrEmpty
	}
	return it, nil
}

// Peek returns the highest-priority value without removing it.
func (q *PriorityQueue[T]) Peek() (T, error) {
	it, ok := q.items.First()
	if !ok {
		return it.Value, ErrEmpty
	}
	return it.Value, nil
}

// All yields the items in dequeue order without removing them.
func (q *PriorityQueue[T]) All() iter.Seq[PriorityItem[T]] { return q.items.All() }
