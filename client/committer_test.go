package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/core"
	"github.com/hupe1980/listgo/dataset"
)

// gatedPusher blocks every push until released, recording the payloads it
// eventually accepts. FetchPage/FetchSelection are unused by the committer.
type gatedPusher struct {
	mu      sync.Mutex
	gate    chan struct{}
	orders  [][]core.ItemID
	failing atomic.Int32
}

func newGatedPusher() *gatedPusher {
	return &gatedPusher{gate: make(chan struct{})}
}

func (g *gatedPusher) FetchPage(context.Context, int, int, string) ([]dataset.Item, error) {
	return nil, errors.New("not used")
}

func (g *gatedPusher) FetchSelection(context.Context) ([]core.ItemID, error) {
	return nil, errors.New("not used")
}

func (g *gatedPusher) PushOrder(ctx context.Context, ids []core.ItemID) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	if g.failing.Load() > 0 {
		g.failing.Add(-1)
		return errors.New("push failed")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, append([]core.ItemID(nil), ids...))
	return nil
}

func (g *gatedPusher) PushSelection(ctx context.Context, ids []core.ItemID) error {
	return g.PushOrder(ctx, ids)
}

func (g *gatedPusher) accepted() [][]core.ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([][]core.ItemID(nil), g.orders...)
}

func TestCommitterLatestWins(t *testing.T) {
	g := newGatedPusher()
	var unsynced atomic.Bool
	c := newCommitter(g, listgo.NoopLogger(), 1, time.Millisecond, &unsynced, nil)

	// The committer may pick up the first payload and block pushing it.
	// Everything queued behind it coalesces down to the newest.
	c.enqueueOrder([]core.ItemID{1})
	c.enqueueOrder([]core.ItemID{2})
	c.enqueueOrder([]core.ItemID{3})
	c.enqueueOrder([]core.ItemID{4})

	close(g.gate)
	c.close()

	accepted := g.accepted()
	require.NotEmpty(t, accepted)
	assert.LessOrEqual(t, len(accepted), 2)
	assert.Equal(t, []core.ItemID{4}, accepted[len(accepted)-1])
	assert.False(t, unsynced.Load())
}

func TestCommitterRetriesUntilSuccess(t *testing.T) {
	g := newGatedPusher()
	close(g.gate)
	g.failing.Store(2)

	var unsynced atomic.Bool
	var commitErrs atomic.Int32
	c := newCommitter(g, listgo.NoopLogger(), 3, time.Millisecond, &unsynced, func(error) {
		commitErrs.Add(1)
	})
	defer c.close()

	c.enqueueOrder([]core.ItemID{7})

	require.Eventually(t, func() bool {
		accepted := g.accepted()
		return len(accepted) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []core.ItemID{7}, g.accepted()[0])
	assert.False(t, unsynced.Load())
	assert.Equal(t, int32(0), commitErrs.Load())
}

func TestCommitterUnsyncedAfterExhaustedRetries(t *testing.T) {
	g := newGatedPusher()
	close(g.gate)
	g.failing.Store(10)

	var unsynced atomic.Bool
	var lastErr atomic.Value
	c := newCommitter(g, listgo.NoopLogger(), 2, time.Millisecond, &unsynced, func(err error) {
		lastErr.Store(err)
	})
	defer c.close()

	c.enqueueOrder([]core.ItemID{1, 2})

	require.Eventually(t, func() bool {
		return unsynced.Load()
	}, time.Second, time.Millisecond)
	require.NotNil(t, lastErr.Load())
	assert.EqualError(t, lastErr.Load().(error), "push failed")

	// A later successful commit clears the flag.
	g.failing.Store(0)
	c.enqueueOrder([]core.ItemID{3})
	require.Eventually(t, func() bool {
		return !unsynced.Load()
	}, time.Second, time.Millisecond)
}

func TestCommitterFlushesOnClose(t *testing.T) {
	g := newGatedPusher()
	close(g.gate)

	var unsynced atomic.Bool
	c := newCommitter(g, listgo.NoopLogger(), 1, time.Millisecond, &unsynced, nil)

	c.enqueueOrder([]core.ItemID{1})
	c.enqueueSelection([]core.ItemID{2})
	c.close()

	// close waits for the run loop, which drains pending payloads first.
	assert.Len(t, g.accepted(), 2)

	// Closing twice is safe.
	c.close()
}

func TestCommitterOrderAndSelectionIndependent(t *testing.T) {
	g := newGatedPusher()
	close(g.gate)

	var unsynced atomic.Bool
	c := newCommitter(g, listgo.NoopLogger(), 1, time.Millisecond, &unsynced, nil)

	c.enqueueOrder([]core.ItemID{10, 20})
	c.enqueueSelection([]core.ItemID{30})
	c.close()

	accepted := g.accepted()
	require.Len(t, accepted, 2)
	assert.ElementsMatch(t, [][]core.ItemID{{10, 20}, {30}}, accepted)
}
