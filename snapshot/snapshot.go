// Package snapshot persists list state (order overlay + selection set) to
// a blobstore so a restart does not lose user ordering and selection.
//
// Snapshots are best-effort: the in-process state is always authoritative
// and a missing or torn snapshot simply means starting empty.
//
// # Format
//
// A snapshot blob is self-describing:
//
//	magic "LGSN" | format version (1 byte)
//	codec name      (1-byte length + bytes)
//	compressor name (1-byte length + bytes)
//	crc32 (IEEE, big endian, over the compressed payload)
//	payload length (uint32 big endian) | payload
//
// Codec and compressor are selected by name on load, so changing the
// defaults never breaks existing snapshots.
package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/listgo/blobstore"
	"github.com/hupe1980/listgo/codec"
	"github.com/hupe1980/listgo/core"
)

var magic = [4]byte{'L', 'G', 'S', 'N'}

const formatVersion = 1

var (
	// ErrNoSnapshot is returned by Load when no snapshot exists yet.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrCorrupt is returned when a snapshot fails structural or checksum
	// validation.
	ErrCorrupt = errors.New("corrupt snapshot")
)

// State is the persisted list state.
type State struct {
	// Order is the order overlay: a complete or partial permutation of
	// item ids, in user-chosen order.
	Order []core.ItemID `json:"order"`

	// Selection is the set of selected item ids.
	Selection []core.ItemID `json:"selection"`
}

// Options configure a Manager.
type Options struct {
	// Name is the blob name snapshots are written to.
	Name string

	// Codec encodes the state payload. Defaults to codec.Default.
	Codec codec.Codec

	// Compressor compresses the encoded payload.
	// Defaults to DefaultCompressor.
	Compressor Compressor
}

// Manager saves and loads state snapshots on a blobstore.
type Manager struct {
	store blobstore.Store
	opts  Options
}

// NewManager creates a Manager writing to store.
func NewManager(store blobstore.Store, optFns ...func(*Options)) *Manager {
	opts := Options{
		Name:       "state.snap",
		Codec:      codec.Default,
		Compressor: DefaultCompressor,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{store: store, opts: opts}
}

// Save encodes, compresses and writes the state.
func (m *Manager) Save(ctx context.Context, st State) error {
	encoded, err := m.opts.Codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload, err := m.opts.Compressor.Compress(encoded)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	blob := encodeBlob(m.opts.Codec.Name(), m.opts.Compressor.Name(), payload)
	if err := m.store.Put(ctx, m.opts.Name, blob); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the latest snapshot.
// Returns ErrNoSnapshot when none has been written yet.
func (m *Manager) Load(ctx context.Context) (State, error) {
	blob, err := m.store.Get(ctx, m.opts.Name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return State{}, ErrNoSnapshot
		}
		return State{}, fmt.Errorf("read snapshot: %w", err)
	}

	codecName, compName, payload, err := decodeBlob(blob)
	if err != nil {
		return State{}, err
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return State{}, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, codecName)
	}
	comp, ok := CompressorByName(compName)
	if !ok {
		return State{}, fmt.Errorf("%w: unknown compressor %q", ErrCorrupt, compName)
	}

	encoded, err := comp.Decompress(payload)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var st State
	if err := c.Unmarshal(encoded, &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}

func encodeBlob(codecName, compName string, payload []byte) []byte {
	size := len(magic) + 1 +
		1 + len(codecName) +
		1 + len(compName) +
		4 + 4 + len(payload)

	out := make([]byte, 0, size)
	out = append(out, magic[:]...)
	out = append(out, formatVersion)
	out = append(out, byte(len(codecName)))
	out = append(out, codecName...)
	out = append(out, byte(len(compName)))
	out = append(out, compName...)
	out = binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(payload))
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	return out
}

func decodeBlob(blob []byte) (codecName, compName string, payload []byte, err error) {
	r := blob
	take := func(n int) ([]byte, bool) {
		if len(r) < n {
			return nil, false
		}
		b := r[:n]
		r = r[n:]
		return b, true
	}

	head, ok := take(len(magic) + 1)
	if !ok || [4]byte(head[:4]) != magic {
		return "", "", nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if head[4] != formatVersion {
		return "", "", nil, fmt.Errorf("%w: unsupported format version %d", ErrCorrupt, head[4])
	}

	readString := func() (string, bool) {
		n, ok := take(1)
		if !ok {
			return "", false
		}
		b, ok := take(int(n[0]))
		if !ok {
			return "", false
		}
		return string(b), true
	}

	codecName, ok = readString()
	if !ok {
		return "", "", nil, fmt.Errorf("%w: truncated codec name", ErrCorrupt)
	}
	compName, ok = readString()
	if !ok {
		return "", "", nil, fmt.Errorf("%w: truncated compressor name", ErrCorrupt)
	}

	tail, ok := take(8)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	sum := binary.BigEndian.Uint32(tail[:4])
	n := binary.BigEndian.Uint32(tail[4:])
	payload, ok = take(int(n))
	if !ok || len(r) != 0 {
		return "", "", nil, fmt.Errorf("%w: payload length mismatch", ErrCorrupt)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return "", "", nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return codecName, compName, payload, nil
}
