package fixdb

import "log/slog"

// Lookup returns, in ascending order, the rows whose field currently equals
// value. Equality is on encoded bytes, so value is converted to the field's
// type first. The result is nil when nothing matches.
func (s *Store[R]) Lookup(field string, value any) ([]RowID, error) {
	const op = "lookup"
	ix, fi, err := s.index(op, field)
	if err != nil {
		return nil, err
	}
	key := scratchBytes(s.schema.fields[fi].Size)
	defer releaseScratch(key)
	if err := s.codec.encodeFieldInto(fi, key, value); err != nil {
		return nil, storeErrf(ErrFieldType, op, s.path, err, "").field(field)
	}
	return s.lookup(op, ix, key), nil
}

// LookupRaw is like Lookup but takes the already encoded key, which must be
// exactly the field's size.
func (s *Store[R]) LookupRaw(field string, key []byte) ([]RowID, error) {
	const op = "lookup"
	ix, fi, err := s.index(op, field)
	if err != nil {
		return nil, err
	}
	if size := s.schema.fields[fi].Size; len(key) != size {
		return nil, storeErrf(ErrFieldType, op, s.path, nil, "key is %d bytes, field is %d", len(key), size).field(field)
	}
	return s.lookup(op, ix, key), nil
}

// Count returns the number of rows whose field equals value.
func (s *Store[R]) Count(field string, value any) (int, error) {
	const op = "count"
	ix, fi, err := s.index(op, field)
	if err != nil {
		return 0, err
	}
	key := scratchBytes(s.schema.fields[fi].Size)
	defer releaseScratch(key)
	if err := s.codec.encodeFieldInto(fi, key, value); err != nil {
		return 0, storeErrf(ErrFieldType, op, s.path, err, "").field(field)
	}
	return ix.Count(string(key)), nil
}

func (s *Store[R]) index(op, field string) (*IndexSet, int, error) {
	if err := s.checkOpen(op); err != nil {
		return nil, -1, err
	}
	fi := s.schema.fieldPos(field)
	if fi < 0 {
		return nil, -1, storeErrf(ErrUnknownField, op, s.path, nil, "").field(field)
	}
	ix := s.indexes[fi]
	if ix == nil {
		return nil, -1, storeErrf(ErrNotIndexed, op, s.path, nil, "").field(field)
	}
	return ix, fi, nil
}

func (s *Store[R]) lookup(op string, ix *IndexSet, key []byte) []RowID {
	ids := ix.Lookup(string(key))
	if s.verbose {
		s.logger.Debug("fixdb: "+op, slog.String("path", s.path), slog.String("field", ix.Field()), hexAttr("key", key), slog.Int("found", len(ids)))
	}
	return ids
}
