// Package client implements the incremental, deduplicating client side of
// the list-state engine.
//
// The Accumulator requests pages one at a time, merges them into a local
// list keyed by item id, and reconciles optimistic reorder/selection
// gestures against the server through a background committer. UI concerns
// (rendering, drag capture, scroll detection) live outside: the UI feeds
// events in (LoadNext, SetSearch, Toggle, Reorder) and renders Items().
package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
)

// State is the accumulator's load state.
type State uint8

const (
	// StateIdle means the accumulator is ready to request the next page.
	StateIdle State = iota
	// StateLoading means a page request is in flight.
	StateLoading
	// StateExhausted means the last page has been received; no further
	// requests are issued until the search changes.
	StateExhausted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrIndexOutOfRange is returned by Reorder for positions outside the
// accumulated list.
var ErrIndexOutOfRange = fmt.Errorf("index out of range")

// Accumulator incrementally accumulates pages from a Fetcher.
//
// All exported methods are safe for concurrent use, though the intended
// usage is a single UI event loop feeding events in. The only suspension
// point is the page fetch inside LoadNext; an atomic in-flight flag keeps
// a second fetch from starting while one is outstanding, and a generation
// counter discards results that arrive after a search reset.
type Accumulator struct {
	fetcher  Fetcher
	pageSize int
	logger   *listgo.Logger

	// inFlight mirrors StateLoading without waiting for the mutex, so a
	// scroll storm cannot start a second fetch between state transitions.
	inFlight atomic.Bool
	unsynced atomic.Bool

	mu         sync.Mutex
	state      State
	generation uint64
	search     string
	page       int
	items      []dataset.Item
	loaded     *roaring64.Bitmap
	selected   *roaring64.Bitmap

	committer *committer
}

// AccumulatorOptions configure an Accumulator.
type AccumulatorOptions struct {
	// PageSize is the number of items requested per page. Default: 20.
	PageSize int

	// Logger traces loads and commits. Default: no logging.
	Logger *listgo.Logger

	// CommitAttempts bounds how often a failed commit is retried before the
	// accumulator is marked unsynced. Default: 3.
	CommitAttempts int

	// CommitBackoff is the initial retry backoff, doubled per attempt.
	// Default: 250ms.
	CommitBackoff time.Duration

	// OnCommitError is invoked (from the committer goroutine) when a commit
	// exhausted its retries. Optional.
	OnCommitError func(error)
}

// NewAccumulator creates an Accumulator over the given fetcher and starts
// its background committer. Callers must Close it when done.
func NewAccumulator(fetcher Fetcher, optFns ...func(*AccumulatorOptions)) *Accumulator {
	opts := AccumulatorOptions{
		PageSize:       20,
		Logger:         listgo.NoopLogger(),
		CommitAttempts: 3,
		CommitBackoff:  250 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Accumulator{
		fetcher:  fetcher,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
		loaded:   roaring64.New(),
		selected: roaring64.New(),
	}
	a.committer = newCommitter(fetcher, opts.Logger, opts.CommitAttempts, opts.CommitBackoff, &a.unsynced, opts.OnCommitError)
	return a
}

// Close stops the background committer, flushing pending commits.
func (a *Accumulator) Close() {
	a.committer.close()
}

// LoadNext fetches and merges the next page. It returns true when a page
// was merged, and false when the call was a no-op: a request is already in
// flight, the list is exhausted, or the result was superseded by a search
// reset while in flight.
//
// On a transient fetch error the cursor rewinds so the next trigger
// re-requests the same page; the error is returned for surfacing but needs
// no handling beyond that.
func (a *Accumulator) LoadNext(ctx context.Context) (bool, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}

	a.mu.Lock()
	if a.state == StateExhausted {
		a.mu.Unlock()
		a.inFlight.Store(false)
		return false, nil
	}
	a.state = StateLoading
	gen := a.generation
	page := a.page
	search := a.search
	// The cursor advances when the request is issued, not when it lands.
	a.page++
	a.mu.Unlock()

	items, err := a.fetcher.FetchPage(ctx, page, a.pageSize, search)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight.Store(false)

	if a.generation != gen {
		// The search changed underneath this request. The state was already
		// reset; just drop the stale page.
		a.logger.DebugContext(ctx, "stale page discarded", "page", page, "search", search)
		return false, nil
	}
	if err != nil {
		a.state = StateIdle
		a.page = page
		a.logger.WarnContext(ctx, "page fetch failed", "page", page, "search", search, "error", err)
		return false, err
	}

	merged := 0
	for _, it := range items {
		if a.loaded.Contains(uint64(it.ID)) {
			continue
		}
		a.loaded.Add(uint64(it.ID))
		a.items = append(a.items, it)
		merged++
	}
	if len(items) < a.pageSize {
		a.state = StateExhausted
	} else {
		a.state = StateIdle
	}
	a.logger.DebugContext(ctx, "page merged",
		"page", page,
		"received", len(items),
		"merged", merged,
		"state", a.state.String(),
	)
	return true, nil
}

// SetSearch installs a new search term. Any change is a hard reset: the
// accumulated list, dedup set and page cursor are cleared, and a page
// request still in flight for the previous term will be discarded when it
// lands.
func (a *Accumulator) SetSearch(term string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if term == a.search {
		return
	}
	a.search = term
	a.generation++
	a.page = 0
	a.items = nil
	a.loaded = roaring64.New()
	a.state = StateIdle
}

// Search returns the current search term.
func (a *Accumulator) Search() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.search
}

// State returns the current load state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// HasMore reports whether further pages may exist for the current search.
func (a *Accumulator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != StateExhausted
}

// Len returns the number of accumulated items.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Items returns a copy of the accumulated list in display order.
func (a *Accumulator) Items() []dataset.Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]dataset.Item, len(a.items))
	copy(out, a.items)
	return out
}

// SyncSelection fetches the server's selection set and installs it as the
// local one. Typically called once at startup.
func (a *Accumulator) SyncSelection(ctx context.Context) error {
	ids, err := a.fetcher.FetchSelection(ctx)
	if err != nil {
		return err
	}

	bm := roaring64.New()
	for _, id := range ids {
		bm.Add(uint64(id))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = bm
	return nil
}

// Toggle flips the selection of id locally and commits the full resulting
// set to the server asynchronously. It returns the new local membership.
func (a *Accumulator) Toggle(id core.ItemID) bool {
	a.mu.Lock()
	var selected bool
	if a.selected.Contains(uint64(id)) {
		a.selected.Remove(uint64(id))
	} else {
		a.selected.Add(uint64(id))
		selected = true
	}
	ids := a.selectedIDsLocked()
	a.mu.Unlock()

	a.committer.enqueueSelection(ids)
	return selected
}

// IsSelected reports whether id is locally selected.
func (a *Accumulator) IsSelected(id core.ItemID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected.Contains(uint64(id))
}

// Selected returns the locally selected ids in ascending order.
func (a *Accumulator) Selected() []core.ItemID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectedIDsLocked()
}

func (a *Accumulator) selectedIDsLocked() []core.ItemID {
	out := make([]core.ItemID, 0, a.selected.GetCardinality())
	it := a.selected.Iterator()
	for it.HasNext() {
		out = append(out, core.ItemID(it.Next()))
	}
	return out
}

// Reorder moves the item at oldIndex to newIndex in the accumulated list,
// then commits the full resulting ordering to the server asynchronously.
// Local state does not roll back if the commit ultimately fails; the
// accumulator is marked unsynced instead (see Unsynced).
func (a *Accumulator) Reorder(oldIndex, newIndex int) error {
	a.mu.Lock()
	if oldIndex < 0 || oldIndex >= len(a.items) || newIndex < 0 || newIndex >= len(a.items) {
		a.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if oldIndex != newIndex {
		moved := a.items[oldIndex]
		a.items = append(a.items[:oldIndex], a.items[oldIndex+1:]...)
		rest := append(a.items[:newIndex:newIndex], moved)
		a.items = append(rest, a.items[newIndex:]...)
	}
	ids := make([]core.ItemID, len(a.items))
	for i, it := range a.items {
		ids[i] = it.ID
	}
	a.mu.Unlock()

	a.committer.enqueueOrder(ids)
	return nil
}

// Unsynced reports whether the latest commit of local state failed after
// all retries, meaning local order/selection may diverge from the server
// until a later commit succeeds.
func (a *Accumulator) Unsynced() bool {
	return a.unsynced.Load()
}
