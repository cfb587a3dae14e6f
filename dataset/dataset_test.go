package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/listgo/core"
)

func TestGenerate(t *testing.T) {
	s := Generate(5)

	require.Equal(t, 5, s.Len())
	all := s.All()
	for i, it := range all {
		assert.Equal(t, core.ItemID(i+1), it.ID)
		assert.Equal(t, fmt.Sprintf("Item %d", i+1), it.Name)
	}
}

func TestGet(t *testing.T) {
	s := Generate(3)

	it, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "Item 1", it.Name)

	it, ok = s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Item 3", it.Name)

	_, ok = s.Get(3)
	assert.False(t, ok)
}

func TestFilterEmptyTermReturnsAll(t *testing.T) {
	s := Generate(10)

	got := s.Filter("")
	assert.Len(t, got, 10)
	assert.Equal(t, s.All(), got)
}

func TestFilterSubstring(t *testing.T) {
	s := Generate(25)

	// "3" matches Item 3, 13, 23.
	got := s.Filter("3")
	require.Len(t, got, 3)
	assert.Equal(t, "Item 3", got[0].Name)
	assert.Equal(t, "Item 13", got[1].Name)
	assert.Equal(t, "Item 23", got[2].Name)
}

func TestFilterCaseInsensitive(t *testing.T) {
	s := Generate(5)

	assert.Len(t, s.Filter("ITEM"), 5)
	assert.Len(t, s.Filter("iTeM 2"), 1)
}

func TestFilterNoMatch(t *testing.T) {
	s := Generate(5)

	assert.Empty(t, s.Filter("widget"))
	assert.Empty(t, s.Filter("Item 99"))
}

func TestFilterPreservesNaturalOrder(t *testing.T) {
	s := Generate(200)

	got := s.Filter("item 1")
	var prev core.ItemID
	for _, it := range got {
		require.Greater(t, it.ID, prev)
		prev = it.ID
	}
}

// The indexed and scan paths must agree for every term length, including
// terms below the trigram size that always take the scan path.
func TestFilterIndexMatchesScan(t *testing.T) {
	indexed := Generate(500)
	scanned := Generate(500, WithoutIndex())

	terms := []string{"", "1", "42", "item", "item 4", "tem 12", "m 333", "zzz", "ITEM 50"}
	for _, term := range terms {
		t.Run(fmt.Sprintf("term=%q", term), func(t *testing.T) {
			assert.Equal(t, scanned.Filter(term), indexed.Filter(term))
		})
	}
}

func TestFilterCustomItems(t *testing.T) {
	s := New([]Item{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "beta"},
		{ID: 3, Name: "Alphabet"},
	})

	got := s.Filter("alpha")
	require.Len(t, got, 2)
	assert.Equal(t, core.ItemID(1), got[0].ID)
	assert.Equal(t, core.ItemID(3), got[1].ID)

	got = s.Filter("BET")
	require.Len(t, got, 2)
	assert.Equal(t, core.ItemID(2), got[0].ID)
	assert.Equal(t, core.ItemID(3), got[1].ID)
}

func TestFilterIsDeterministic(t *testing.T) {
	s := Generate(100)

	first := s.Filter("item 9")
	for range 5 {
		assert.Equal(t, first, s.Filter("item 9"))
	}
}

func BenchmarkFilterIndexed(b *testing.B) {
	s := Generate(100_000)
	b.ResetTimer()

	for b.Loop() {
		_ = s.Filter("item 4242")
	}
}

func BenchmarkFilterScan(b *testing.B) {
	s := Generate(100_000, WithoutIndex())
	b.ResetTimer()

	for b.Loop() {
		_ = s.Filter("item 4242")
	}
}
