package fixdb

import (
	"slices"
	"testing"
)

func TestIndexSet(t *testing.T) {
	ix := NewIndexSet("id")
	ix.Add("a", 3)
	ix.Add("a", 1)
	ix.Add("b", 2)
	ix.Add("a", 1)

	lookupEq(t, ix, "a", 1, 3)
	lookupEq(t, ix, "b", 2)
	lookupEq(t, ix, "c")

	if !ix.Contains("a", 3) || ix.Contains("b", 3) {
		t.Errorf("Contains is wrong")
	}
	if a, e := ix.Count("a"), 2; a != e {
		t.Errorf("Count(a) = %d, wanted %d", a, e)
	}

	ix.Remove("a", 3)
	lookupEq(t, ix, "a", 1)
	ix.Remove("c", 1) // absent key is fine
	ix.Remove("b", 9) // absent row is fine
	lookupEq(t, ix, "b", 2)

	ix.Remove("b", 2)
	if _, ok := ix.byKey["b"]; ok {
		t.Errorf("empty key b not pruned")
	}
	if a, e := ix.sortedKeys(), []string{"a"}; !slices.Equal(a, e) {
		t.Errorf("sortedKeys = %q, wanted %q", a, e)
	}

	st := ix.Stats()
	if st.Field != "id" || st.Values != 1 || st.Entries != 1 || st.Bytes <= 0 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestIndexSet_equal(t *testing.T) {
	a, b := NewIndexSet("f"), NewIndexSet("f")
	for _, ix := range []*IndexSet{a, b} {
		ix.Add("x", 1)
		ix.Add("y", 2)
	}
	if !a.equal(b) {
		t.Errorf("equal sets reported different")
	}
	b.Add("y", 3)
	if a.equal(b) {
		t.Errorf("different rows reported equal")
	}
	b.Remove("y", 3)
	b.Add("z", 4)
	if a.equal(b) {
		t.Errorf("different keys reported equal")
	}
}

func lookupEq(t testing.TB, ix *IndexSet, key string, expected ...RowID) {
	t.Helper()
	a := ix.Lookup(key)
	if !slices.Equal(a, expected) {
		t.Errorf("Lookup(%q) = %v, wanted %v", key, a, expected)
	}
}
