// Package collections implements the ordered containers the rest of civic is
// built on: a singly-linked Sequence and the hash table, dictionary, set,
// stack, queue and priority queue layered over it.
//
// None of the types are safe for concurrent mutation. Callers that share a
// container across goroutines must guard it themselves.
package collections

import "errors"

var (
	// ErrEmpty is returned when popping, dequeuing or peeking an empty container.
	ErrEmpty = errors.New("collection is empty")

	// ErrOutOfRange is returned for an invalid index or a destination buffer
	// too small for a copy.
	ErrOutOfRange = errors.New("index out of range")

	// ErrDuplicateKey is returned by HashTable.Add when the key is already present.
	ErrDuplicateKey = errors.New("key already exists")

	// ErrKeyNotFound is returned by Dictionary.Get on a lookup miss.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNilKey is returned when a nil interface or pointer key is inserted.
	ErrNilKey = errors.New("key is nil")
)
