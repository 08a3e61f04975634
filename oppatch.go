package fixdb

import (
	"bytes"
	"log/slog"
)

// PatchField sets a single field of record id. The value must have the field's
// Go type or convert to it without loss.
//
// If the encoded value equals the stored bytes, PatchField does nothing: no
// write, no index change. Otherwise only the field's bytes are written.
func (s *Store[R]) PatchField(id RowID, field string, value any) error {
	const op = "patch"
	if err := s.checkRow(op, id); err != nil {
		return err
	}
	fi := s.schema.fieldPos(field)
	if fi < 0 {
		return storeErrf(ErrUnknownField, op, s.path, nil, "").at(int64(id), -1).field(field)
	}
	f := &s.schema.fields[fi]

	buf := scratchBytes(f.Size)
	defer releaseScratch(buf)
	if err := s.codec.encodeFieldInto(fi, buf, value); err != nil {
		return storeErrf(ErrFieldType, op, s.path, err, "").at(int64(id), -1).field(field)
	}

	old := s.codec.fieldBytes(fi, s.record(id))
	if bytes.Equal(old, buf) {
		if s.verbose {
			s.logMutation(op+".noop", id, slog.String("field", field))
		}
		return nil
	}

	off := s.recordOffset(id) + int64(f.Offset)
	if err := s.write(op, id, buf, off); err != nil {
		return err.field(field)
	}

	if ix := s.indexes[fi]; ix != nil {
		ix.Remove(string(old), id)
		ix.Add(string(buf), id)
	}
	if s.verbose {
		s.logMutation(op, id, slog.String("field", field), hexAttr("old", old), hexAttr("new", buf))
	}
	copy(old, buf)
	s.codec.decodeField(fi, old, &s.rows[id])
	return nil
}
