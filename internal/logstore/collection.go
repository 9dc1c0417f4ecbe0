// Package logstore provides the keyed collections every tracked domain is
// stored in.
//
// A Collection holds at most one entry per key (a calendar day for day logs,
// an identifier for child records and entities). Collections are immutable
// values: every write returns a new Collection and leaves the receiver
// untouched, so snapshots handed out earlier never change underneath their
// readers.
package logstore

import (
	"encoding/json"
	"sort"
)

// Keyed is implemented by every entry stored in a Collection.
type Keyed interface {
	Key() string
}

// Collection is an insertion-ordered mapping from key to entry.
// The zero value is an empty collection ready to use, and every empty
// collection is the zero value so reflect.DeepEqual treats them alike.
type Collection[T Keyed] struct {
	keys  []string
	items map[string]T
}

// New builds a collection from entries. A later entry replaces an earlier
// one with the same key but keeps the earlier position.
func New[T Keyed](entries ...T) Collection[T] {
	if len(entries) == 0 {
		return Collection[T]{}
	}
	c := Collection[T]{
		keys:  make([]string, 0, len(entries)),
		items: make(map[string]T, len(entries)),
	}
	for _, e := range entries {
		k := e.Key()
		if _, ok := c.items[k]; !ok {
			c.keys = append(c.keys, k)
		}
		c.items[k] = e
	}
	return c
}

// FromSlice builds a collection from a slice with the same duplicate rule
// as New.
func FromSlice[T Keyed](entries []T) Collection[T] {
	return New(entries...)
}

func (c Collection[T]) clone(extra int) Collection[T] {
	out := Collection[T]{
		keys:  make([]string, len(c.keys), len(c.keys)+extra),
		items: make(map[string]T, len(c.items)+extra),
	}
	copy(out.keys, c.keys)
	for k, v := range c.items {
		out.items[k] = v
	}
	return out
}

// Upsert replaces the entry with the same key in place, or appends it.
func (c Collection[T]) Upsert(v T) Collection[T] {
	k := v.Key()
	if _, ok := c.items[k]; ok {
		out := c.clone(0)
		out.items[k] = v
		return out
	}
	out := c.clone(1)
	out.keys = append(out.keys, k)
	out.items[k] = v
	return out
}

// Prepend inserts v at the front, or replaces an existing entry in place.
func (c Collection[T]) Prepend(v T) Collection[T] {
	k := v.Key()
	if _, ok := c.items[k]; ok {
		return c.Upsert(v)
	}
	out := c.clone(1)
	out.keys = append([]string{k}, out.keys...)
	out.items[k] = v
	return out
}

// Remove returns the collection without key. Other entries are unaffected.
func (c Collection[T]) Remove(key string) Collection[T] {
	if _, ok := c.items[key]; !ok {
		return c
	}
	if len(c.keys) == 1 {
		return Collection[T]{}
	}
	out := Collection[T]{
		keys:  make([]string, 0, len(c.keys)-1),
		items: make(map[string]T, len(c.items)-1),
	}
	for _, k := range c.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.items[k] = c.items[k]
	}
	return out
}

// Find returns the entry stored under key.
func (c Collection[T]) Find(key string) (T, bool) {
	v, ok := c.items[key]
	return v, ok
}

// Has reports whether key is present.
func (c Collection[T]) Has(key string) bool {
	_, ok := c.items[key]
	return ok
}

// Update applies fn to the entry under key, or to the zero value with
// found == false when the key is absent, and upserts the result. It is the
// find-or-create step used for lazily created day logs.
func (c Collection[T]) Update(key string, fn func(current T, found bool) T) Collection[T] {
	cur, ok := c.items[key]
	return c.Upsert(fn(cur, ok))
}

// Len returns the number of entries.
func (c Collection[T]) Len() int {
	return len(c.keys)
}

// All returns the entries in insertion order.
func (c Collection[T]) All() []T {
	out := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Keys returns the keys in insertion order.
func (c Collection[T]) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Sorted returns the entries ordered by less.
func (c Collection[T]) Sorted(less func(a, b T) bool) []T {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// SortedByKey returns the entries in ascending key order. For day logs this
// is chronological order.
func (c Collection[T]) SortedByKey() []T {
	return c.Sorted(func(a, b T) bool { return a.Key() < b.Key() })
}

// FindBy returns the first entry, in insertion order, matching pred.
func (c Collection[T]) FindBy(pred func(T) bool) (T, bool) {
	for _, k := range c.keys {
		if v := c.items[k]; pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns a collection holding only the entries matching pred.
func (c Collection[T]) Filter(pred func(T) bool) Collection[T] {
	var kept []T
	for _, k := range c.keys {
		if v := c.items[k]; pred(v) {
			kept = append(kept, v)
		}
	}
	return New(kept...)
}

// Count returns how many entries match pred.
func (c Collection[T]) Count(pred func(T) bool) int {
	n := 0
	for _, v := range c.items {
		if pred(v) {
			n++
		}
	}
	return n
}

// Map applies fn to every entry. fn must preserve each entry's key.
func (c Collection[T]) Map(fn func(T) T) Collection[T] {
	if len(c.keys) == 0 {
		return c
	}
	out := c.clone(0)
	for k, v := range c.items {
		out.items[k] = fn(v)
	}
	return out
}

// MarshalJSON encodes the collection as an array in insertion order.
func (c Collection[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes an array. A null or missing array yields an empty
// collection; duplicate keys collapse to the last entry.
func (c *Collection[T]) UnmarshalJSON(data []byte) error {
	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*c = New(entries...)
	return nil
}
