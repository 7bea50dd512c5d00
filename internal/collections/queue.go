package collections

// Queue is a FIFO adapter over a Sequence.
type Queue[T any] struct {
	items Sequence[T]
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] { return &Queue[T]{} }

// Len returns the number of values.
func (q *Queue[T]) Len() int { return q.items.Len() }

// Any reports whether the queue is non-empty.
func (q *Queue[T]) Any() bool { return q.items.Any() }

// Enqueue appends v at the back.
func (q *Queue[T]) Enqueue(v T) { q.items.Add(v) }

// Dequeue removes and returns the front value.
func (q *Queue[T]) Dequeue() (T, error) {
	v, ok := q.items.removeFirst()
	if !ok {
		return v, ErrEmpty
	}
	return v, nil
}

// Peek returns the front value without removing it.
func (q *Queue[T]) Peek() (T, error) {
	v, ok := q.items.First()
	if !ok {
		return v, ErrEmpty
	}
	return v, nil
}
