// Package dataset holds the full item collection and answers filtered
// queries over it in natural (creation) order.
//
// The collection is fixed once built: items are never mutated, deleted or
// renumbered. This makes every read path lock-free and lets the store hand
// out shared slices that callers must treat as read-only.
package dataset

import (
	"fmt"
	"strings"

	"github.com/hupe1980/listgo/core"
)

// Item is a single entry of the backing dataset.
// Immutable once created; IDs are unique, stable and never reused.
type Item struct {
	ID   core.ItemID `json:"id"`
	Name string      `json:"name"`
}

// Store is the in-memory dataset store.
//
// Filtering preserves natural order and matches the search term as a
// case-insensitive substring of the item name. An optional trigram index
// (see index.go) accelerates terms of at least three bytes; shorter terms
// fall back to a linear scan. Both paths are behaviorally identical.
type Store struct {
	items []Item
	// lowered mirrors items with pre-lowercased names so the scan path does
	// not allocate per call.
	lowered []string
	index   *trigramIndex
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	noIndex bool
}

// WithoutIndex disables the trigram index. Every filter call then scans
// linearly. Mainly useful for tests and memory-constrained deployments.
func WithoutIndex() Option {
	return func(o *storeOptions) {
		o.noIndex = true
	}
}

// New builds a Store over the given items, preserving their order as the
// natural order.
func New(items []Item, optFns ...Option) *Store {
	var opts storeOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Store{
		items:   items,
		lowered: make([]string, len(items)),
	}
	for i, it := range items {
		s.lowered[i] = strings.ToLower(it.Name)
	}
	if !opts.noIndex {
		s.index = buildTrigramIndex(s.lowered)
	}
	return s
}

// Generate builds a Store of n items named "Item 1".."Item n" with
// ids 1..n. This mirrors the seed data the reference deployment serves.
func Generate(n int, optFns ...Option) *Store {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:   core.ItemID(i + 1),
			Name: fmt.Sprintf("Item %d", i+1),
		}
	}
	return New(items, optFns...)
}

// Len returns the number of items in the dataset.
func (s *Store) Len() int {
	return len(s.items)
}

// All returns every item in natural order.
// The returned slice is shared; callers must not mutate it.
func (s *Store) All() []Item {
	return s.items
}

// Get returns the item with the given ordinal (natural-order position).
func (s *Store) Get(ord core.Ordinal) (Item, bool) {
	if int(ord) >= len(s.items) {
		return Item{}, false
	}
	return s.items[ord], true
}

// Filter returns, in natural order, every item whose name contains term as
// a case-insensitive substring. An empty term matches all items.
//
// Filter is pure and deterministic. The result is freshly allocated except
// for the empty-term case, which returns the shared natural-order slice.
func (s *Store) Filter(term string) []Item {
	if term == "" {
		return s.items
	}
	needle := strings.ToLower(term)

	if s.index != nil && len(needle) >= trigramSize {
		return s.filterIndexed(needle)
	}
	return s.filterScan(needle)
}

func (s *Store) filterScan(needle string) []Item {
	var out []Item
	for i, name := range s.lowered {
		if strings.Contains(name, needle) {
			out = append(out, s.items[i])
		}
	}
	return out
}

func (s *Store) filterIndexed(needle string) []Item {
	candidates := s.index.candidates(needle)
	if candidates == nil {
		return nil
	}

	var out []Item
	// Roaring iterates in ascending ordinal order, so the natural order of
	// the dataset is preserved without sorting.
	it := candidates.Iterator()
	for it.HasNext() {
		ord := it.Next()
		// Trigram intersection over-approximates; verify the actual match.
		if strings.Contains(s.lowered[ord], needle) {
			out = append(out, s.items[ord])
		}
	}
	return out
}
