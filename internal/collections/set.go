package collections

import "iter"

// Set holds unique values in insertion order. Membership is a linear scan.
type Set[T comparable] struct {
	items Sequence[T]
}

// NewSet returns a set holding the distinct values in order.
func NewSet[T comparable](values ...T) *Set[T] {
	s := &Set[T]{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Len returns the number of values.
func (s *Set[T]) Len() int { return s.items.Len() }

// Add inserts v and reports whether it was absent.
func (s *Set[T]) Add(v T) bool {
	if s.Contains(v) {
		return false
	}
	s.items.Add(v)
	return true
}

// Contains reports whether v is present.
func (s *Set[T]) Contains(v T) bool { return Contains(&s.items, v) }

// Remove deletes v and reports whether it was present.
func (s *Set[T]) Remove(v T) bool {
	_, ok := s.items.removeFunc(func(x T) bool { return x == v })
	return ok
}

// Clear removes every value.
func (s *Set[T]) Clear() { s.items.Clear() }

// All yields the values in insertion order.
func (s *Set[T]) All() iter.Seq[T] { return s.items.All() }

// ToSequence returns the values as a new sequence.
func (s *Set[T]) ToSequence() *Sequence[T] { return s.items.Take(s.items.Len()) }
