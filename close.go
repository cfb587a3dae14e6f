package listgo

import "context"

// Close shuts the engine down. When a state store is configured, a final
// snapshot of order and selection is taken first. Close is idempotent;
// operations after Close return ErrClosed.
func (lg *ListGo) Close() error {
	if lg == nil {
		return nil
	}

	var err error
	if lg.snapshots != nil && !lg.closed.Load() {
		err = lg.Snapshot(context.Background())
	}
	lg.closed.Store(true)
	return err
}
