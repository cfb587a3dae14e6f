package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/core"
)

// committer pushes optimistic local mutations to the server from a single
// background goroutine.
//
// Each commit carries the full resulting state (the whole ordering or the
// whole selection set), so pending payloads of the same kind supersede
// each other: the queues are latest-wins with capacity one. Failed pushes
// retry with doubling backoff; once retries are exhausted the unsynced
// flag is raised and stays up until a later commit of the same state
// succeeds.
type committer struct {
	fetcher  Fetcher
	logger   *listgo.Logger
	attempts int
	backoff  time.Duration
	unsynced *atomic.Bool
	onError  func(error)

	orderCh     chan []core.ItemID
	selectionCh chan []core.ItemID
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func newCommitter(fetcher Fetcher, logger *listgo.Logger, attempts int, backoff time.Duration, unsynced *atomic.Bool, onError func(error)) *committer {
	if attempts < 1 {
		attempts = 1
	}
	c := &committer{
		fetcher:     fetcher,
		logger:      logger,
		attempts:    attempts,
		backoff:     backoff,
		unsynced:    unsynced,
		onError:     onError,
		orderCh:     make(chan []core.ItemID, 1),
		selectionCh: make(chan []core.ItemID, 1),
		stopCh:      make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *committer) enqueueOrder(ids []core.ItemID)     { enqueueLatest(c.orderCh, ids) }
func (c *committer) enqueueSelection(ids []core.ItemID) { enqueueLatest(c.selectionCh, ids) }

// enqueueLatest replaces any pending payload with ids. A later commit
// carries the full state, so the superseded payload is redundant.
func enqueueLatest(ch chan []core.ItemID, ids []core.ItemID) {
	for {
		select {
		case ch <- ids:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (c *committer) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			// Flush pending commits before exiting.
			c.drain()
			return
		case ids := <-c.orderCh:
			c.commit("order", ids, c.fetcher.PushOrder)
		case ids := <-c.selectionCh:
			c.commit("selection", ids, c.fetcher.PushSelection)
		}
	}
}

func (c *committer) drain() {
	for {
		select {
		case ids := <-c.orderCh:
			c.commit("order", ids, c.fetcher.PushOrder)
		case ids := <-c.selectionCh:
			c.commit("selection", ids, c.fetcher.PushSelection)
		default:
			return
		}
	}
}

func (c *committer) commit(kind string, ids []core.ItemID, push func(context.Context, []core.ItemID) error) {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = push(ctx, ids)
		cancel()
		if err == nil {
			c.unsynced.Store(false)
			c.logger.Debug("commit succeeded", "kind", kind, "count", len(ids), "attempt", attempt)
			return
		}
		c.logger.Warn("commit attempt failed", "kind", kind, "attempt", attempt, "error", err)

		if attempt == c.attempts {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-c.stopCh:
			// Shutting down; one final immediate attempt happens via drain
			// only for still-queued payloads, so give up here.
			attempt = c.attempts
		}
	}

	c.unsynced.Store(true)
	c.logger.Error("commit failed, local state unsynced", "kind", kind, "count", len(ids), "error", err)
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *committer) close() {
	select {
	case <-c.stopCh:
		return
	default:
	}
	close(c.stopCh)
	c.wg.Wait()
}
