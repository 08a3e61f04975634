package fixdb

import "iter"

// Len returns the number of records. A closed store has none.
func (s *Store[R]) Len() int {
	return len(s.rows)
}

// Row returns a copy of record id.
func (s *Store[R]) Row(id RowID) (R, error) {
	if err := s.checkRow("get", id); err != nil {
		var zero R
		return zero, err
	}
	return s.rows[id], nil
}

// RawRow returns the encoded bytes of record id as they appear in the file.
// The result is a copy.
func (s *Store[R]) RawRow(id RowID) ([]byte, error) {
	if err := s.checkRow("get", id); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.record(id)...), nil
}

// All yields every record in row order. Mutating the store while iterating is
// allowed; records appended during iteration are not visited.
func (s *Store[R]) All() iter.Seq2[RowID, R] {
	return func(yield func(RowID, R) bool) {
		n := len(s.rows)
		for i := 0; i < n && i < len(s.rows); i++ {
			if !yield(RowID(i), s.rows[i]) {
				return
			}
		}
	}
}
