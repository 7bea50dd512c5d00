package collections

import "iter"

// Stack is a LIFO adapter over a Sequence whose head is the top.
type Stack[T any] struct {
	items Sequence[T]
}

// NewStack returns an empty stack.
func NewStack[T any]() *Stack[T] { return &Stack[T]{} }

// Len returns the number of values.
func (s *Stack[T]) Len() int { return s.items.Len() }

// Any reports whether the stack is non-empty.
func (s *Stack[T]) Any() bool { return s.items.Any() }

// Push places v on top.
func (s *Stack[T]) Push(v T) { s.items.prepend(v) }

// Pop removes and returns the top value.
func (s *Stack[T]) Pop() (T, error) {
	v, ok := s.items.removeFirst()
	if !ok {
		return v, ErrEmpty
	}
	return v, nil
}

// Peek returns the top value without removing it.
func (s *Stack[T]) Peek() (T, error) {
	v, ok := s.items.First()
	if !ok {
		return v, ErrEmpty
	}
	return v, nil
}

// All yields values from top to bottom.
func (s *Stack[T]) All() iter.Seq[T] { return s.items.All() }
