// Package selection implements the persisted set of selected item ids.
//
// The set is replaced wholesale on every commit: the committing side always
// sends the full resulting set, never a delta. This avoids partial-update
// races at the cost of O(selection size) payloads per toggle.
package selection

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/listgo/core"
)

// Set holds the current selection. Safe for concurrent use.
//
// Membership is a Roaring 64-bit bitmap, so a selection spanning a large
// slice of the dataset stays compact. Ids unknown to the dataset are
// tolerated: they are stored but never render as selected anywhere.
type Set struct {
	mu sync.RWMutex
	bm *roaring64.Bitmap
}

// New returns an empty selection set.
func New() *Set {
	return &Set{bm: roaring64.New()}
}

// Replace installs ids as the new selection, discarding the previous one.
func (s *Set) Replace(ids []core.ItemID) {
	bm := roaring64.New()
	for _, id := range ids {
		bm.Add(uint64(id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bm = bm
}

// IDs returns the current selection in ascending id order.
func (s *Set) IDs() []core.ItemID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ItemID, 0, s.bm.GetCardinality())
	it := s.bm.Iterator()
	for it.HasNext() {
		out = append(out, core.ItemID(it.Next()))
	}
	return out
}

// Contains reports whether id is selected.
func (s *Set) Contains(id core.ItemID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bm.Contains(uint64(id))
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.bm.GetCardinality())
}
