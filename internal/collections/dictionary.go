package collections

import "fmt"

// Dictionary is a small ordered map backed by a Sequence of entries. Every
// operation is a linear scan. Unlike HashTable, Set overwrites an existing key.
type Dictionary[K comparable, V any] struct {
	items Sequence[*Entry[K, V]]
}

// NewDictionary returns an empty dictionary.
func NewDictionary[K comparable, V any]() *Dictionary[K, V] {
	return &Dictionary[K, V]{}
}

// Len returns the number of keys.
func (d *Dictionary[K, V]) Len() int { return d.items.Len() }

func (d *Dictionary[K, V]) find(key K) *Entry[K, V] {
	for e := range d.items.All() {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// Set stores value under key, replacing any existing value in place.
func (d *Dictionary[K, V]) Set(key K, value V) {
	if e := d.find(key); e != nil {
		e.Value = value
		return
	}
	d.items.Add(&Entry[K, V]{Key: key, Value: value})
}

// Get returns the value for key or ErrKeyNotFound.
func (d *Dictionary[K, V]) Get(key K) (V, error) {
	if e := d.find(key); e != nil {
		return e.Value, nil
	}
	var zero V
	return zero, fmt.Errorf("key %v: %w", key, ErrKeyNotFound)
}

// TryGet returns the value for key and whether it was found.
func (d *Dictionary[K, V]) TryGet(key K) (V, bool) {
	if e := d.find(key); e != nil {
		return e.Value, true
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is present.
func (d *Dictionary[K, V]) ContainsKey(key K) bool { return d.find(key) != nil }

// Keys returns the keys in insertion order.
func (d *Dictionary[K, V]) Keys() *Sequence[K] {
	keys := &Sequence[K]{}
	for e := range d.items.All() {
		keys.Add(e.Key)
	}
	return keys
}

// Entries returns a snapshot of the key/value pairs in insertion order.
func (d *Dictionary[K, V]) Entries() *Sequence[Entry[K, V]] {
	out := &Sequence[Entry[K, V]]{}
	for e := range d.items.All() {
		out.Add(*e)
	}
	return out
}

// Clear removes every key.
func (d *Dictionary[K, V]) Clear() { d.items.Clear() }
