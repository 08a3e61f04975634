package fixdb

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns the xxHash64 of the file contents as held in memory.
func (s *Store[R]) Checksum() uint64 {
	return xxhash.Sum64(s.image)
}

// Verify re-reads the file and checks that the mirror and every index agree
// with it. It returns an error wrapping ErrMismatch describing the first
// discrepancy found.
func (s *Store[R]) Verify() error {
	const op = "verify"
	if err := s.checkOpen(op); err != nil {
		return err
	}
	err := s.verify(op)
	if err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "fixdb: verification failed", slog.String("path", s.path), slog.Any("err", err))
	}
	return err
}

func (s *Store[R]) verify(op string) error {
	st, err := s.f.Stat()
	if err != nil {
		return storeErrf(ErrIO, op, s.path, err, "")
	}
	size := st.Size()
	if size != int64(len(s.image)) {
		return storeErrf(ErrMismatch, op, s.path, nil, "file is %d bytes, mirror holds %d", size, len(s.image))
	}

	data := make([]byte, size)
	_, err = io.ReadFull(io.NewSectionReader(s.f, 0, size), data)
	if err != nil {
		return storeErrf(ErrIO, op, s.path, err, "")
	}
	if fileSum, memSum := xxhash.Sum64(data), s.Checksum(); fileSum != memSum {
		rs := s.schema.recordSize
		for i := range s.rows {
			off := i * rs
			if !bytes.Equal(data[off:off+rs], s.image[off:off+rs]) {
				return storeErrf(ErrMismatch, op, s.path, nil, "checksum %016x, mirror %016x", fileSum, memSum).at(int64(i), int64(off))
			}
		}
		return storeErrf(ErrMismatch, op, s.path, nil, "checksum %016x, mirror %016x", fileSum, memSum)
	}

	// Decoded rows must round-trip to the same encoding as their stored bytes.
	rs := s.schema.recordSize
	fromRow, fromFile := scratchBytes(rs), scratchBytes(rs)
	defer releaseScratch(fromRow)
	defer releaseScratch(fromFile)
	for i := range s.rows {
		id := RowID(i)
		s.codec.Encode(fromRow, &s.rows[i])
		decoded, _ := s.codec.Decode(s.record(id))
		s.codec.Encode(fromFile, &decoded)
		if !bytes.Equal(fromRow, fromFile) {
			return storeErrf(ErrMismatch, op, s.path, nil, "decoded row differs from stored record").at(int64(i), s.recordOffset(id))
		}
	}

	for _, fi := range s.schema.indexed {
		name := s.schema.fields[fi].Name
		fresh := NewIndexSet(name)
		for i := range s.rows {
			id := RowID(i)
			key := string(s.codec.fieldBytes(fi, s.record(id)))
			if !s.indexes[fi].Contains(key, id) {
				return storeErrf(ErrMismatch, op, s.path, nil, "row missing from index under %s", hexstr([]byte(key))).at(int64(i), s.recordOffset(id)).field(name)
			}
			fresh.Add(key, id)
		}
		if !fresh.equal(s.indexes[fi]) {
			return storeErrf(ErrMismatch, op, s.path, nil, "index holds entries for rows that do not have them").field(name)
		}
	}
	return nil
}
