package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Order     []uint64 `json:"order"`
	Selection []uint64 `json:"selection"`
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreWireCompatible(t *testing.T) {
	in := payload{Order: []uint64{3, 1, 2}, Selection: []uint64{2}}

	std, err := JSON{}.Marshal(in)
	require.NoError(t, err)
	fast, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, string(std), string(fast))

	// Cross-decode both ways.
	var out payload
	require.NoError(t, GoJSON{}.Unmarshal(std, &out))
	assert.Equal(t, in, out)

	out = payload{}
	require.NoError(t, JSON{}.Unmarshal(fast, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalMalformed(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		var v payload
		assert.Error(t, c.Unmarshal([]byte("{not json"), &v), c.Name())
	}
}

func TestMustMarshalDefaultsAndPanics(t *testing.T) {
	b := MustMarshal(nil, payload{Order: []uint64{1}})
	assert.NotEmpty(t, b)

	assert.Panics(t, func() {
		MustMarshal(JSON{}, func() {}) // funcs are not serializable
	})
}
