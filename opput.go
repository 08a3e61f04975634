package fixdb

import "log/slog"

// Append writes row as a new record at the end of the file and returns its
// id. The record is durable (unless NoSync is set) before the mirror and
// indexes change; on error neither is touched.
func (s *Store[R]) Append(row R) (RowID, error) {
	const op = "append"
	if err := s.checkOpen(op); err != nil {
		return 0, err
	}
	if int64(len(s.rows)) >= maxRows {
		return 0, storeErrf(ErrStoreFull, op, s.path, nil, "%d records", len(s.rows))
	}

	// Encode into the spare capacity of the image; s.image keeps its old
	// length until the write succeeds.
	off, image := grow(s.image, s.schema.recordSize)
	rec := image[off:]
	s.codec.Encode(rec, &row)
	return s.appendRecord(op, image, rec, row)
}

// appendRaw appends an already encoded record. Used by imports so that the
// file receives exactly the source bytes.
func (s *Store[R]) appendRaw(op string, data []byte) (RowID, error) {
	if err := s.checkOpen(op); err != nil {
		return 0, err
	}
	if int64(len(s.rows)) >= maxRows {
		return 0, storeErrf(ErrStoreFull, op, s.path, nil, "%d records", len(s.rows))
	}
	row, err := s.codec.Decode(data)
	if err != nil {
		return 0, storeErrf(ErrCorruptRecord, op, s.path, err, "").at(int64(len(s.rows)), -1)
	}
	off, image := grow(s.image, s.schema.recordSize)
	rec := image[off:]
	copy(rec, data)
	return s.appendRecord(op, image, rec, row)
}

func (s *Store[R]) appendRecord(op string, image, rec []byte, row R) (RowID, error) {
	id := RowID(len(s.rows))
	if err := s.write(op, id, rec, s.recordOffset(id)); err != nil {
		return 0, err
	}
	s.image = image
	s.rows = append(s.rows, row)
	s.indexAdd(id, rec)
	if s.verbose {
		s.logMutation(op, id, recordGroup("data", s.schema, rec))
	}
	return id, nil
}

// Update overwrites record id with row. Every indexed field is moved from its
// old key to its new key, even when the two are equal.
func (s *Store[R]) Update(id RowID, row R) error {
	const op = "update"
	if err := s.checkRow(op, id); err != nil {
		return err
	}

	buf := scratchBytes(s.schema.recordSize)
	defer releaseScratch(buf)
	s.codec.Encode(buf, &row)
	if err := s.write(op, id, buf, s.recordOffset(id)); err != nil {
		return err
	}

	old := s.record(id)
	for _, fi := range s.schema.indexed {
		ix := s.indexes[fi]
		ix.Remove(string(s.codec.fieldBytes(fi, old)), id)
		ix.Add(string(s.codec.fieldBytes(fi, buf)), id)
	}
	if s.verbose {
		s.logMutation(op, id, recordGroup("old", s.schema, old), recordGroup("new", s.schema, buf))
	}
	copy(old, buf)
	s.rows[id] = row
	return nil
}

// recordGroup renders rec as a log group with one hex attribute per field.
func recordGroup(key string, scm *Schema, rec []byte) slog.Attr {
	attrs := make([]any, 0, len(scm.fields))
	for _, f := range scm.fields {
		attrs = append(attrs, hexAttr(f.Name, rec[f.Offset:f.end()]))
	}
	return slog.Group(key, attrs...)
}
