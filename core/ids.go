package core

// ItemID is the stable, never-reused identifier of an item in the backing
// dataset. IDs are assigned once at dataset creation and survive reordering,
// filtering and selection unchanged.
type ItemID uint64

// Ordinal is the dense, zero-based position of an item in the dataset's
// natural (creation) order. It is strictly 32-bit and used for hot-path
// structures (posting bitmaps, candidate sets).
type Ordinal uint32

// MaxOrdinal is the maximum possible value for an Ordinal.
const MaxOrdinal = ^Ordinal(0)
