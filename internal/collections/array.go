package collections

import (
	"fmt"
	"iter"
)

const defaultArrayCapacity = 10

// Array is a growable, index-addressable buffer. It is the positional-access
// counterpart of Sequence.
type Array[T any] struct {
	items []T
	size  int
}

// NewArray returns an empty array with the given capacity. A capacity <= 0
// uses the default of 10.
func NewArray[T any](capacity int) *Array[T] {
	if capacity <= 0 {
		capacity = defaultArrayCapacity
	}
	return &Array[T]{items: make([]T, capacity)}
}

// Len returns the number of stored elements.
func (a *Array[T]) Len() int { return a.size }

// Add appends v, doubling the backing buffer when full.
func (a *Array[T]) Add(v T) {
	if a.size >= len(a.items) {
		a.grow()
	}
	a.items[a.size] = v
	a.size++
}

func (a *Array[T]) grow() {
	n := len(a.items) * 2
	if n == 0 {
		n = defaultArrayCapacity
	}
	next := make([]T, n)
	copy(next, a.items[:a.size])
	a.items = next
}

// At returns the element at index i.
func (a *Array[T]) At(i int) (T, error) {
	if i < 0 || i >= a.size {
		var zero T
		return zero, fmt.Errorf("array index %d (len %d): %w", i, a.size, ErrOutOfRange)
	}
	return a.items[i], nil
}

// Set replaces the element at index i.
func (a *Array[T]) Set(i int, v T) error {
	if i < 0 || i >= a.size {
		return fmt.Errorf("array index %d (len %d): %w", i, a.size, ErrOutOfRange)
	}
	a.items[i] = v
	return nil
}

// CopyFrom replaces the contents with the elements of s.
func (a *Array[T]) CopyFrom(s *Sequence[T]) {
	clear(a.items[:a.size])
	a.size = 0
	for v := range s.All() {
		a.Add(v)
	}
}

// ToSequence returns the elements as a new sequence.
func (a *Array[T]) ToSequence() *Sequence[T] {
	s := &Sequence[T]{}
	for i := 0; i < a.size; i++ {
		s.Add(a.items[i])
	}
	return s
}

// All yields the elements in index order.
func (a *Array[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < a.size; i++ {
			if !yield(a.items[i]) {
				return
			}
		}
	}
}

// ArrayContains reports whether v is stored in a.
func ArrayContains[T comparable](a *Array[T], v T) bool {
	for x := range a.All() {
		if x == v {
			return true
		}
	}
	return false
}
