package listgo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
	"github.com/hupe1980/listgo/internal/cache"
	"github.com/hupe1980/listgo/overlay"
	"github.com/hupe1980/listgo/selection"
	"github.com/hupe1980/listgo/snapshot"
)

// Page is one window of query results.
type Page struct {
	// Items is the page content, at most the requested limit.
	Items []dataset.Item

	// Last reports that this is the last page: fewer items were returned
	// than requested.
	Last bool
}

// ListGo is the list-state engine: it answers paginated queries over the
// dataset and owns the order overlay and selection set.
//
// All methods are safe for concurrent use. Queries read a consistent
// snapshot of dataset + overlay for the duration of one call; mutations
// are serialized by the leaf components' locks.
type ListGo struct {
	dataset   *dataset.Store
	overlay   *overlay.Overlay
	selection *selection.Set

	// views memoizes the filtered+ordered sequence per search term so
	// successive page requests of one scroll session cost O(1).
	views *cache.LRU[string, *orderedView]
	group singleflight.Group

	snapshots *snapshot.Manager

	logger  *Logger
	metrics MetricsCollector

	closed atomic.Bool
}

// orderedView is a memoized filtered+ordered sequence for one search term.
type orderedView struct {
	items []dataset.Item
	// overlayVersion is the overlay version the view was built against.
	// Only meaningful for the empty search term; filtered views ignore the
	// overlay entirely.
	overlayVersion uint64
}

// New creates a ListGo engine over the given dataset.
func New(ds *dataset.Store, optFns ...Option) (*ListGo, error) {
	opts := applyOptions(optFns)

	lg := &ListGo{
		dataset:   ds,
		overlay:   overlay.New(),
		selection: selection.New(),
		views:     cache.NewLRU[string, *orderedView](opts.viewCacheSize),
		logger:    opts.logger,
		metrics:   opts.metricsCollector,
	}
	if opts.stateStore != nil {
		lg.snapshots = snapshot.NewManager(opts.stateStore, opts.snapshotOptions...)
	}
	return lg, nil
}

// Query returns one page of the filtered, ordered item sequence.
//
// page is the zero-based page index and limit the page size. search is
// matched case-insensitively as a substring of item names; the empty
// string matches everything. The ordering override is applied only when
// search is empty.
//
// A page index beyond the available data is not an error: it yields an
// empty page with Last set.
func (lg *ListGo) Query(ctx context.Context, page, limit int, search string) (Page, error) {
	start := time.Now()
	result, err := lg.query(ctx, page, limit, search)
	lg.metrics.RecordQuery(len(result.Items), time.Since(start), err)
	lg.logger.LogQuery(ctx, page, limit, search, len(result.Items), err)
	return result, err
}

func (lg *ListGo) query(ctx context.Context, page, limit int, search string) (Page, error) {
	if lg.closed.Load() {
		return Page{}, ErrClosed
	}
	if page < 0 {
		return Page{}, ErrInvalidPage
	}
	if limit <= 0 {
		return Page{}, ErrInvalidLimit
	}

	term := strings.ToLower(search)
	view, err := lg.orderedView(ctx, term)
	if err != nil {
		return Page{}, err
	}

	// page*limit can wrap for huge page indexes, so bound the page
	// first instead of the product.
	if page > len(view)/limit {
		return Page{Items: []dataset.Item{}, Last: true}, nil
	}
	lo := page * limit
	hi := lo + limit
	if hi > len(view) {
		hi = len(view)
	}
	window := view[lo:hi]
	return Page{Items: window, Last: len(window) < limit}, nil
}

// orderedView returns the full filtered+ordered sequence for term,
// memoized until the overlay changes. Concurrent builds for the same term
// are collapsed into one.
func (lg *ListGo) orderedView(ctx context.Context, term string) ([]dataset.Item, error) {
	overlayVersion := uint64(0)
	if term == "" {
		// Only the unfiltered view depends on the overlay.
		overlayVersion = lg.overlay.Version()
	}

	if v, ok := lg.views.Get(term); ok && v.overlayVersion == overlayVersion {
		return v.items, nil
	}

	key := strconv.FormatUint(overlayVersion, 10) + "|" + term
	built, err, _ := lg.group.Do(key, func() (any, error) {
		filtered := lg.dataset.Filter(term)

		v := &orderedView{items: filtered}
		if term == "" {
			ids, version := lg.overlay.Snapshot()
			v.items = overlay.Apply(ids, filtered)
			v.overlayVersion = version
		}
		lg.views.Set(term, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return built.(*orderedView).items, nil
}

// ReplaceOrder installs ids as the new ordering override, replacing the
// previous one entirely. Ids unknown to the dataset are tolerated; the
// merge drops them naturally.
func (lg *ListGo) ReplaceOrder(ctx context.Context, ids []core.ItemID) error {
	start := time.Now()
	err := lg.replaceOrder(ids)
	lg.metrics.RecordReplaceOrder(len(ids), time.Since(start), err)
	lg.logger.LogReplaceOrder(ctx, len(ids), err)
	return err
}

func (lg *ListGo) replaceOrder(ids []core.ItemID) error {
	if lg.closed.Load() {
		return ErrClosed
	}
	lg.overlay.Replace(ids)
	// Only the unfiltered view consults the overlay; filtered views keep.
	lg.views.Remove("")
	return nil
}

// Order returns the current ordering override.
func (lg *ListGo) Order() []core.ItemID {
	ids, _ := lg.overlay.Snapshot()
	out := make([]core.ItemID, len(ids))
	copy(out, ids)
	return out
}

// ReplaceSelection installs ids as the new selection set, replacing the
// previous one entirely. Ids unknown to the dataset are tolerated; they
// simply never render as selected.
func (lg *ListGo) ReplaceSelection(ctx context.Context, ids []core.ItemID) error {
	start := time.Now()
	err := lg.replaceSelection(ids)
	lg.metrics.RecordReplaceSelection(len(ids), time.Since(start), err)
	lg.logger.LogReplaceSelection(ctx, len(ids), err)
	return err
}

func (lg *ListGo) replaceSelection(ids []core.ItemID) error {
	if lg.closed.Load() {
		return ErrClosed
	}
	lg.selection.Replace(ids)
	return nil
}

// Selection returns the current selection in ascending id order.
func (lg *ListGo) Selection() []core.ItemID {
	return lg.selection.IDs()
}

// Selected reports whether id is currently selected.
func (lg *ListGo) Selected(id core.ItemID) bool {
	return lg.selection.Contains(id)
}

// Dataset returns the backing dataset store.
func (lg *ListGo) Dataset() *dataset.Store {
	return lg.dataset
}

// Snapshot persists the current order and selection to the configured
// state store. It is a no-op when no state store is configured.
func (lg *ListGo) Snapshot(ctx context.Context) error {
	if lg.snapshots == nil {
		return nil
	}

	start := time.Now()
	err := lg.snapshots.Save(ctx, snapshot.State{
		Order:     lg.Order(),
		Selection: lg.Selection(),
	})
	lg.metrics.RecordSnapshot(time.Since(start), err)
	lg.logger.LogSnapshot(ctx, err)
	return err
}

// Restore loads the latest snapshot from the configured state store and
// installs its order and selection. Missing snapshots are not an error;
// the engine then starts empty. It is a no-op when no state store is
// configured.
func (lg *ListGo) Restore(ctx context.Context) error {
	if lg.snapshots == nil {
		return nil
	}

	st, err := lg.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil
		}
		return err
	}
	if err := lg.ReplaceOrder(ctx, st.Order); err != nil {
		return err
	}
	return lg.ReplaceSelection(ctx, st.Selection)
}
