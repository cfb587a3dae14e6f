// Package overlay implements the user-defined ordering override.
//
// The overlay is a permutation (complete or partial) of item ids that takes
// precedence over the dataset's natural order. It is replaced wholesale on
// every commit, never patched.
package overlay

import (
	"sync"

	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
)

// Overlay holds the current ordering override.
//
// Safe for concurrent use. Replace is atomic with respect to Snapshot:
// a reader sees either the previous or the new ordering, never a mix.
type Overlay struct {
	mu      sync.RWMutex
	ids     []core.ItemID
	version uint64
}

// New returns an empty Overlay.
func New() *Overlay {
	return &Overlay{}
}

// Replace installs ids as the new ordering override, replacing the previous
// one entirely. The slice is copied. Replacing bumps the overlay version.
func (o *Overlay) Replace(ids []core.ItemID) {
	copied := make([]core.ItemID, len(ids))
	copy(copied, ids)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids = copied
	o.version++
}

// Snapshot returns the current ordering override and its version. The
// returned slice is shared with the overlay and must not be mutated;
// Replace never writes into a previously returned slice.
func (o *Overlay) Snapshot() ([]core.ItemID, uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ids, o.version
}

// Version returns the current overlay version. The version increases on
// every Replace and is used to invalidate memoized query views.
func (o *Overlay) Version() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.version
}

// Len returns the number of ids in the current override.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.ids)
}

// Apply merges the ordering override into filtered.
//
// For each id in overlayIDs, in overlay order, the matching filtered item
// (if any) is emitted once. Items not named by the overlay follow, keeping
// their relative natural order. The output is always a permutation of
// filtered: nothing is lost, nothing duplicated, unknown overlay ids are
// dropped. An empty overlay is the identity.
func Apply(overlayIDs []core.ItemID, filtered []dataset.Item) []dataset.Item {
	if len(overlayIDs) == 0 || len(filtered) == 0 {
		return filtered
	}

	pos := make(map[core.ItemID]int, len(filtered))
	for i, it := range filtered {
		pos[it.ID] = i
	}

	out := make([]dataset.Item, 0, len(filtered))
	taken := make([]bool, len(filtered))
	for _, id := range overlayIDs {
		i, ok := pos[id]
		if !ok || taken[i] {
			continue
		}
		taken[i] = true
		out = append(out, filtered[i])
	}
	for i, it := range filtered {
		if !taken[i] {
			out = append(out, it)
		}
	}
	return out
}
