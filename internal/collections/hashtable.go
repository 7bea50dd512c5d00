package collections

import (
	"fmt"
	"hash/maphash"
	"reflect"
)

const (
	initialBuckets = 16
	maxLoadFactor  = 0.75
)

// Entry is a key/value pair stored in a HashTable or Dictionary.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// HashTable maps unique keys to values using separate chaining. Each bucket
// is a Sequence of entries. Adding a key that is already present fails with
// ErrDuplicateKey; there is no overwrite.
type HashTable[K comparable, V any] struct {
	seed    maphash.Seed
	buckets []*Sequence[Entry[K, V]]
	count   int
}

// NewHashTable returns an empty table with 16 buckets.
func NewHashTable[K comparable, V any]() *HashTable[K, V] {
	return &HashTable[K, V]{
		seed:    maphash.MakeSeed(),
		buckets: makeBuckets[K, V](initialBuckets),
	}
}

func makeBuckets[K comparable, V any](n int) []*Sequence[Entry[K, V]] {
	b := make([]*Sequence[Entry[K, V]], n)
	for i := range b {
		b[i] = &Sequence[Entry[K, V]]{}
	}
	return b
}

// Len returns the number of stored entries.
func (h *HashTable[K, V]) Len() int { return h.count }

// BucketCount returns the current number of buckets.
func (h *HashTable[K, V]) BucketCount() int { return len(h.buckets) }

func (h *HashTable[K, V]) bucketFor(key K) *Sequence[Entry[K, V]] {
	idx := maphash.Comparable(h.seed, key) % uint64(len(h.buckets))
	return h.buckets[idx]
}

// Add inserts key/value. It grows the table by doubling once the load factor
// exceeds 0.75.
func (h *HashTable[K, V]) Add(key K, value V) error {
	if isNilKey(key) {
		return ErrNilKey
	}
	bucket := h.bucketFor(key)
	for e := range bucket.All() {
		if e.Key == key {
			return fmt.Errorf("adding %v: %w", key, ErrDuplicateKey)
		}
	}
	bucket.Add(Entry[K, V]{Key: key, Value: value})
	h.count++

	if float64(h.count) > float64(len(h.buckets))*maxLoadFactor {
		if err := h.resize(); err != nil {
			return fmt.Errorf("resizing hash table: %w", err)
		}
	}
	return nil
}

// resize doubles the bucket count and re-adds every entry through Add.
func (h *HashTable[K, V]) resize() error {
	old := h.buckets
	h.buckets = makeBuckets[K, V](len(old) * 2)
	h.count = 0
	for _, bucket := range old {
		for e := range bucket.All() {
			if err := h.Add(e.Key, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the value stored under key.
func (h *HashTable[K, V]) Get(key K) (V, bool) {
	var zero V
	if isNilKey(key) {
		return zero, false
	}
	for e := range h.bucketFor(key).All() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return zero, false
}

// ContainsKey reports whether key is present.
func (h *HashTable[K, V]) ContainsKey(key K) bool {
	_, ok := h.Get(key)
	return ok
}

// Remove deletes key and reports whether it was present.
func (h *HashTable[K, V]) Remove(key K) bool {
	if isNilKey(key) {
		return false
	}
	_, ok := h.bucketFor(key).removeFunc(func(e Entry[K, V]) bool { return e.Key == key })
	if ok {
		h.count--
	}
	return ok
}

// Keys returns every key in bucket order.
func (h *HashTable[K, V]) Keys() *Sequence[K] {
	keys := &Sequence[K]{}
	for _, bucket := range h.buckets {
		for e := range bucket.All() {
			keys.Add(e.Key)
		}
	}
	return keys
}

// Values returns every value in bucket order.
func (h *HashTable[K, V]) Values() *Sequence[V] {
	values := &Sequence[V]{}
	for _, bucket := range h.buckets {
		for e := range bucket.All() {
			values.Add(e.Value)
		}
	}
	return values
}

func isNilKey[K comparable](key K) bool {
	v := any(key)
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
