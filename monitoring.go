package fixdb

type Stats struct {
	Rows       int
	RecordSize int
	DataSize   int64

	Indexes []IndexStats
}

// IndexEntries is the total number of (value, row) pairs over all indexes.
func (st *Stats) IndexEntries() int {
	var n int
	for _, is := range st.Indexes {
		n += is.Entries
	}
	return n
}

// IndexBytes approximates the memory held by index bitmaps.
func (st *Stats) IndexBytes() int {
	var n int
	for _, is := range st.Indexes {
		n += is.Bytes
	}
	return n
}

func (s *Store[R]) Stats() Stats {
	st := Stats{
		Rows:       len(s.rows),
		RecordSize: s.schema.recordSize,
		DataSize:   int64(len(s.image)),
	}
	if s.indexes == nil {
		return st
	}
	for _, fi := range s.schema.indexed {
		st.Indexes = append(st.Indexes, s.indexes[fi].Stats())
	}
	return st
}
