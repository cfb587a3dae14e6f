package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/listgo/blobstore"
	"github.com/hupe1980/listgo/codec"
	"github.com/hupe1980/listgo/core"
)

func testState() State {
	return State{
		Order:     []core.ItemID{3, 1, 2},
		Selection: []core.ItemID{1, 5},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()

	for _, comp := range []Compressor{None{}, S2{}, LZ4{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			m := NewManager(store, func(o *Options) {
				o.Compressor = comp
			})

			require.NoError(t, m.Save(ctx, testState()))

			got, err := m.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, testState(), got)
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := NewManager(store)

	require.NoError(t, m.Save(ctx, testState()))
	require.NoError(t, m.Save(ctx, State{Order: []core.ItemID{9}}))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{9}, got.Order)
	assert.Empty(t, got.Selection)
}

func TestLoadNoSnapshot(t *testing.T) {
	m := NewManager(blobstore.NewMemoryStore())

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadAcrossCodecAndCompressorChange(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Write with explicit non-default codec and compressor.
	writer := NewManager(store, func(o *Options) {
		o.Codec = codec.JSON{}
		o.Compressor = LZ4{}
	})
	require.NoError(t, writer.Save(ctx, testState()))

	// Read with the defaults; the header selects the right pair.
	reader := NewManager(store)
	got, err := reader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testState(), got)
}

func TestLoadCorruptPayload(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := NewManager(store)
	require.NoError(t, m.Save(ctx, testState()))

	blob, err := store.Get(ctx, "state.snap")
	require.NoError(t, err)

	// Flip a byte inside the payload; the checksum must catch it.
	blob[len(blob)-1] ^= 0xFF
	require.NoError(t, store.Put(ctx, "state.snap", blob))

	_, err = m.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadBadMagic(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "state.snap", []byte("not a snapshot")))

	_, err := NewManager(store).Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadTruncatedBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := NewManager(store)
	require.NoError(t, m.Save(ctx, testState()))

	blob, err := store.Get(ctx, "state.snap")
	require.NoError(t, err)

	for _, n := range []int{0, 3, 5, len(blob) / 2, len(blob) - 1} {
		require.NoError(t, store.Put(ctx, "state.snap", blob[:n]))
		_, err = m.Load(ctx)
		assert.ErrorIs(t, err, ErrCorrupt, "truncated at %d", n)
	}
}

func TestLoadUnknownCompressor(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	blob := encodeBlob("json", "zstd-imaginary", []byte("{}"))
	require.NoError(t, store.Put(ctx, "state.snap", blob))

	_, err := NewManager(store).Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCustomName(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := NewManager(store, func(o *Options) {
		o.Name = "lists/main.snap"
	})

	require.NoError(t, m.Save(ctx, testState()))

	_, err := store.Get(ctx, "lists/main.snap")
	assert.NoError(t, err)
}

func TestCompressorRoundtrip(t *testing.T) {
	data := []byte(`{"order":[3,1,2],"selection":[1,5,9,12,400]}`)

	for _, comp := range []Compressor{None{}, S2{}, LZ4{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			packed, err := comp.Compress(data)
			require.NoError(t, err)
			unpacked, err := comp.Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, data, unpacked)

			byName, ok := CompressorByName(comp.Name())
			require.True(t, ok)
			assert.Equal(t, comp.Name(), byName.Name())
		})
	}
}
