package fixdb

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// RowID is the position of a record in the store. Record i lives at file
// offset i*RecordSize. Row ids are never reused.
type RowID uint32

// IndexSet maps the encoded value of one field to the set of rows holding
// that value. Keys whose set becomes empty are removed.
type IndexSet struct {
	field string
	byKey map[string]*roaring.Bitmap
}

func NewIndexSet(field string) *IndexSet {
	return &IndexSet{
		field: field,
		byKey: make(map[string]*roaring.Bitmap),
	}
}

func (ix *IndexSet) Field() string {
	return ix.field
}

// Add inserts row into the set for key.
func (ix *IndexSet) Add(key string, row RowID) {
	bm, ok := ix.byKey[key]
	if !ok {
		bm = roaring.New()
		ix.byKey[key] = bm
	}
	bm.Add(uint32(row))
}

// Remove deletes row from the set for key, dropping the key once its set is
// empty.
func (ix *IndexSet) Remove(key string, row RowID) {
	bm, ok := ix.byKey[key]
	if !ok {
		return
	}
	bm.Remove(uint32(row))
	if bm.IsEmpty() {
		delete(ix.byKey, key)
	}
}

// Lookup returns the rows holding key in ascending order, or nil.
func (ix *IndexSet) Lookup(key string) []RowID {
	bm, ok := ix.byKey[key]
	if !ok {
		return nil
	}
	ids := make([]RowID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, RowID(it.Next()))
	}
	return ids
}

// Contains reports whether row is in the set for key.
func (ix *IndexSet) Contains(key string, row RowID) bool {
	bm, ok := ix.byKey[key]
	return ok && bm.Contains(uint32(row))
}

// Count returns the number of rows holding key.
func (ix *IndexSet) Count(key string) int {
	if bm, ok := ix.byKey[key]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

type IndexStats struct {
	Field   string
	Values  int
	Entries int
	Bytes   int
}

func (ix *IndexSet) Stats() IndexStats {
	st := IndexStats{
		Field:  ix.field,
		Values: len(ix.byKey),
	}
	for _, bm := range ix.byKey {
		st.Entries += int(bm.GetCardinality())
		st.Bytes += int(bm.GetSizeInBytes())
	}
	return st
}

// equal reports whether both sets hold the same rows under the same keys.
func (ix *IndexSet) equal(other *IndexSet) bool {
	if len(ix.byKey) != len(other.byKey) {
		return false
	}
	for k, bm := range ix.byKey {
		obm, ok := other.byKey[k]
		if !ok || !bm.Equals(obm) {
			return false
		}
	}
	return true
}

// sortedKeys is for diagnostics only.
func (ix *IndexSet) sortedKeys() []string {
	keys := make([]string, 0, len(ix.byKey))
	for k := range ix.byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
