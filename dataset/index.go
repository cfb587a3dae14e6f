package dataset

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// trigramSize is the gram width of the posting index. Terms shorter than
// this cannot be answered from the index and take the scan path.
const trigramSize = 3

// trigramIndex is an inverted index from byte trigrams of the lowercased
// item names to the set of item ordinals containing them.
//
// Postings are Roaring bitmaps: cheap to intersect and they iterate in
// ascending ordinal order, which is exactly the dataset's natural order.
type trigramIndex struct {
	postings map[string]*roaring.Bitmap
}

func buildTrigramIndex(lowered []string) *trigramIndex {
	idx := &trigramIndex{
		postings: make(map[string]*roaring.Bitmap),
	}
	for ord, name := range lowered {
		for i := 0; i+trigramSize <= len(name); i++ {
			gram := name[i : i+trigramSize]
			bm, ok := idx.postings[gram]
			if !ok {
				bm = roaring.New()
				idx.postings[gram] = bm
			}
			bm.Add(uint32(ord))
		}
	}
	return idx
}

// candidates returns the ordinals of items whose name contains every
// trigram of needle. The result over-approximates a substring match:
// trigrams may appear in any order, so callers must verify candidates.
// Returns nil when some trigram has no postings (no item can match).
//
// needle must already be lowercased and at least trigramSize bytes long.
func (idx *trigramIndex) candidates(needle string) *roaring.Bitmap {
	var acc *roaring.Bitmap
	for i := 0; i+trigramSize <= len(needle); i++ {
		bm, ok := idx.postings[needle[i:i+trigramSize]]
		if !ok {
			return nil
		}
		if acc == nil {
			acc = bm.Clone()
		} else {
			acc.And(bm)
			if acc.IsEmpty() {
				return nil
			}
		}
	}
	return acc
}
