package fixdb

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpIndexes
	DumpIndexRows

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the store for debugging and tests. Output is deterministic:
// rows in row order, index keys in byte order.
func (s *Store[R]) Dump(f DumpFlags) string {
	var w strings.Builder
	st := s.Stats()
	prefix := s.path

	if f.Contains(DumpHeader) {
		fmt.Fprintln(&w, dumpSep1)
		fmt.Fprintf(&w, "%s (%d rows, %d bytes each)\n", prefix, st.Rows, st.RecordSize)
		fmt.Fprintf(&w, "%s.schema = %v\n", prefix, s.schema)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(&w, "%s.stats: data_size = %d, index_entries = %d, index_bytes = %d, checksum = %016x\n", prefix, st.DataSize, st.IndexEntries(), st.IndexBytes(), s.Checksum())
	}

	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(&w, dumpSep2)
		}
		for id, row := range s.All() {
			s.dumpRow(&w, prefix, id, &row)
		}
	}

	if f.Contains(DumpIndexes) && s.indexes != nil {
		for _, fi := range s.schema.indexed {
			s.dumpIndex(&w, prefix, f, s.indexes[fi])
		}
	}
	return w.String()
}

func (s *Store[R]) dumpRow(w *strings.Builder, prefix string, id RowID, row *R) {
	raw := s.record(id)
	j, err := json.Marshal(row)
	if err != nil {
		fmt.Fprintf(w, "%s.%d = %x ** ERROR: %v\n", prefix, id, raw, err)
		return
	}
	fmt.Fprintf(w, "%s.%d = %x %s\n", prefix, id, raw, j)
}

func (s *Store[R]) dumpIndex(w *strings.Builder, prefix string, f DumpFlags, ix *IndexSet) {
	fmt.Fprintln(w, dumpSep2)
	prefix = prefix + ".i." + ix.Field()
	is := ix.Stats()
	fmt.Fprintf(w, "%s (%d values, %d entries)\n", prefix, is.Values, is.Entries)

	if f.Contains(DumpIndexRows) {
		for _, k := range ix.sortedKeys() {
			fmt.Fprintf(w, "%s.%x => %v\n", prefix, k, ix.Lookup(k))
		}
	}
}
