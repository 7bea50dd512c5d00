package collections

import (
	"fmt"
	"iter"
)

// Identifiable is implemented by values that can be looked up by id.
type Identifiable interface {
	Identifier() int64
}

type node[T any] struct {
	value T
	next  *node[T]
}

// Sequence is an insertion-ordered singly-linked list. Duplicates are allowed.
// The zero value is an empty sequence ready to use.
type Sequence[T any] struct {
	head  *node[T]
	tail  *node[T]
	count int
}

// NewSequence returns a sequence holding values in order.
func NewSequence[T any](values ...T) *Sequence[T] {
	s := &Sequence[T]{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Len returns the number of elements.
func (s *Sequence[T]) Len() int { return s.count }

// Any reports whether the sequence holds at least one element.
func (s *Sequence[T]) Any() bool { return s.count > 0 }

// Add appends v in O(1).
func (s *Sequence[T]) Add(v T) {
	n := &node[T]{value: v}
	if s.tail == nil {
		s.head = n
	} else {
		s.tail.next = n
	}
	s.tail = n
	s.count++
}

// AddRange appends every value yielded by values.
func (s *Sequence[T]) AddRange(values iter.Seq[T]) {
	for v := range values {
		s.Add(v)
	}
}

// At returns the element at index i. O(n).
func (s *Sequence[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= s.count {
		return zero, fmt.Errorf("sequence index %d (len %d): %w", i, s.count, ErrOutOfRange)
	}
	cur := s.head
	for ; i > 0; i-- {
		cur = cur.next
	}
	return cur.value, nil
}

// First returns the head element, or false when empty.
func (s *Sequence[T]) First() (T, bool) {
	if s.head == nil {
		var zero T
		return zero, false
	}
	return s.head.value, true
}

// Last returns the tail element, or false when empty.
func (s *Sequence[T]) Last() (T, bool) {
	if s.tail == nil {
		var zero T
		return zero, false
	}
	return s.tail.value, true
}

// Clear drops every node in O(1).
func (s *Sequence[T]) Clear() {
	s.head = nil
	s.tail = nil
	s.count = 0
}

// All yields the elements from head to tail. Each call starts a fresh walk.
func (s *Sequence[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for cur := s.head; cur != nil; cur = cur.next {
			if !yield(cur.value) {
				return
			}
		}
	}
}

// Take returns a new sequence with the first n elements.
func (s *Sequence[T]) Take(n int) *Sequence[T] {
	out := &Sequence[T]{}
	for cur := s.head; cur != nil && out.count < n; cur = cur.next {
		out.Add(cur.value)
	}
	return out
}

// Skip returns a new sequence without the first n elements.
func (s *Sequence[T]) Skip(n int) *Sequence[T] {
	out := &Sequence[T]{}
	i := 0
	for cur := s.head; cur != nil; cur = cur.next {
		if i >= n {
			out.Add(cur.value)
		}
		i++
	}
	return out
}

// TakeLast returns a new sequence with the last n elements. It is empty when
// n <= 0 or the source is empty.
func (s *Sequence[T]) TakeLast(n int) *Sequence[T] {
	if n <= 0 || s.count == 0 {
		return &Sequence[T]{}
	}
	return s.Skip(max(0, s.count-n))
}

// CopyTo writes the elements into dst starting at start.
func (s *Sequence[T]) CopyTo(dst []T, start int) error {
	if start < 0 || start+s.count > len(dst) {
		return fmt.Errorf("copy %d elements into buffer of %d at %d: %w", s.count, len(dst), start, ErrOutOfRange)
	}
	i := start
	for cur := s.head; cur != nil; cur = cur.next {
		dst[i] = cur.value
		i++
	}
	return nil
}

// ToSlice returns the elements as a new slice.
func (s *Sequence[T]) ToSlice() []T {
	out := make([]T, 0, s.count)
	for cur := s.head; cur != nil; cur = cur.next {
		out = append(out, cur.value)
	}
	return out
}

// Contains reports whether v is present, comparing with ==.
func Contains[T comparable](s *Sequence[T], v T) bool {
	return IndexOf(s, v) >= 0
}

// IndexOf returns the position of the first element equal to v, or -1.
func IndexOf[T comparable](s *Sequence[T], v T) int {
	i := 0
	for cur := s.head; cur != nil; cur = cur.next {
		if cur.value == v {
			return i
		}
		i++
	}
	return -1
}

// GetByID returns the first element whose Identifier matches id.
func GetByID[T Identifiable](s *Sequence[T], id int64) (T, bool) {
	for cur := s.head; cur != nil; cur = cur.next {
		if cur.value.Identifier() == id {
			return cur.value, true
		}
	}
	var zero T
	return zero, false
}

// prepend inserts v before the head in O(1).
func (s *Sequence[T]) prepend(v T) {
	n := &node[T]{value: v, next: s.head}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.count++
}

// removeFirst unlinks the head in O(1).
func (s *Sequence[T]) removeFirst() (T, bool) {
	if s.head == nil {
		var zero T
		return zero, false
	}
	n := s.head
	s.head = n.next
	if s.head == nil {
		s.tail = nil
	}
	s.count--
	return n.value, true
}

// removeFunc unlinks the first element matching pred.
func (s *Sequence[T]) removeFunc(pred func(T) bool) (T, bool) {
	var prev *node[T]
	for cur := s.head; cur != nil; cur = cur.next {
		if !pred(cur.value) {
			prev = cur
			continue
		}
		if prev == nil {
			s.head = cur.next
		} else {
			prev.next = cur.next
		}
		if s.tail == cur {
			s.tail = prev
		}
		s.count--
		return cur.value, true
	}
	var zero T
	return zero, false
}

// insertBeforeFirst links v in front of the first element matching pred, or
// appends it when nothing matches.
func (s *Sequence[T]) insertBeforeFirst(v T, pred func(T) bool) {
	var prev *node[T]
	for cur := s.head; cur != nil; cur = cur.next {
		if pred(cur.value) {
			n := &node[T]{value: v, next: cur}
			if prev == nil {
				s.head = n
			} else {
				prev.next = n
			}
			s.count++
			return
		}
		prev = cur
	}
	s.Add(v)
}
