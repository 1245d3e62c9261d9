package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// DeleteBitSet marks the documents of a segment that were deleted. A nil
// *DeleteBitSet means no document is deleted.
type DeleteBitSet struct {
	bitmap *roaring.Bitmap
}

// NewDeleteBitSet returns a bitset with the given documents marked.
func NewDeleteBitSet(docs ...DocID) *DeleteBitSet {
	return &DeleteBitSet{bitmap: roaring.BitmapOf(docs...)}
}

// IsDeleted reports whether doc is marked deleted.
func (d *DeleteBitSet) IsDeleted(doc DocID) bool {
	if d == nil {
		return false
	}
	return d.bitmap.Contains(doc)
}

// Len returns the number of deleted documents.
func (d *DeleteBitSet) Len() uint32 {
	if d == nil {
		return 0
	}
	return uint32(d.bitmap.GetCardinality())
}

// IsEmpty reports whether no document is deleted.
func (d *DeleteBitSet) IsEmpty() bool {
	return d == nil || d.bitmap.IsEmpty()
}

// Bitmap returns a copy of the underlying bitmap.
func (d *DeleteBitSet) Bitmap() *roaring.Bitmap {
	if d == nil {
		return roaring.New()
	}
	return d.bitmap.Clone()
}

func (d *DeleteBitSet) add(doc DocID) {
	d.bitmap.Add(doc)
}
