package fixdb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/andreyvit/fixdb/lockfile"
	"github.com/andreyvit/fixdb/mmap"
)

// maxRows is the number of distinct RowID values.
const maxRows = int64(1) << 32

type Options struct {
	// Logger receives open/close events and, with Verbose, every mutation.
	// Defaults to slog.Default().
	Logger  *slog.Logger
	Verbose bool

	// NoSync skips fdatasync after each write. Only for tests and bulk loads
	// that sync on their own.
	NoSync bool

	// FileMode is used when creating the data file. Defaults to 0666 (before umask).
	FileMode os.FileMode
}

// Store is a fixed-record flat file with a full in-memory mirror and an
// equality index for every indexed field. The file is authoritative; the
// mirror and indexes are rebuilt from it by Open.
//
// A Store is not safe for concurrent use. Only one Store may have a given file
// open at a time; Open enforces this with an advisory lock.
type Store[R any] struct {
	path    string
	f       *os.File
	schema  *Schema
	codec   *Codec[R]
	logger  *slog.Logger
	verbose bool
	noSync  bool

	rows    []R
	image   []byte      // byte-identical copy of the file
	indexes []*IndexSet // aligned with schema.fields, nil for non-indexed fields
}

// Open opens the data file at path, creating it if it does not exist, and
// loads every record into memory. A file whose length is not a multiple of
// the record size is rejected with ErrCorruptRecord.
func Open[R any](path string, scm *Schema, opt Options) (*Store[R], error) {
	const op = "open"
	codec, err := NewCodec[R](scm)
	if err != nil {
		return nil, storeErrf(ErrOpen, op, path, err, "")
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.FileMode == 0 {
		opt.FileMode = 0o666
	}

	_, statErr := os.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, opt.FileMode)
	if err != nil {
		return nil, storeErrf(ErrOpen, op, path, err, "")
	}
	var ok bool
	defer closeUnlessOK(f, &ok)

	err = lockfile.Lock(f)
	if err == lockfile.ErrLocked {
		return nil, storeErrf(ErrLocked, op, path, err, "")
	} else if err != nil {
		return nil, storeErrf(ErrOpen, op, path, err, "")
	}

	s := &Store[R]{
		path:    path,
		f:       f,
		schema:  scm,
		codec:   codec,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		noSync:  opt.NoSync,
		indexes: make([]*IndexSet, len(scm.fields)),
	}
	for _, fi := range scm.indexed {
		s.indexes[fi] = NewIndexSet(scm.fields[fi].Name)
	}

	err = s.replay()
	if err != nil {
		return nil, err
	}

	ok = true
	msg := "fixdb: opened"
	if created {
		msg = "fixdb: created"
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, msg,
		slog.String("path", path),
		slog.Int("rows", len(s.rows)),
		slog.Int("record_size", scm.recordSize),
		slog.Int("indexes", len(scm.indexed)))
	return s, nil
}

func closeUnlessOK(f *os.File, ok *bool) {
	if *ok {
		return
	}
	f.Close()
}

// replay loads the file into the mirror and builds the indexes.
func (s *Store[R]) replay() error {
	const op = "open"
	st, err := s.f.Stat()
	if err != nil {
		return storeErrf(ErrOpen, op, s.path, err, "")
	}
	size := st.Size()
	rs := int64(s.schema.recordSize)
	if rem := size % rs; rem != 0 {
		n := size / rs
		return storeErrf(ErrCorruptRecord, op, s.path, nil, "file is %d bytes, trailing %d bytes are not a whole %d-byte record", size, rem, rs).at(n, n*rs)
	}
	n := size / rs
	if n > maxRows {
		return storeErrf(ErrStoreFull, op, s.path, nil, "%d records", n)
	}
	if n == 0 {
		return nil
	}

	image, err := s.readImage(size)
	if err != nil {
		return storeErrf(ErrOpen, op, s.path, err, "")
	}

	s.image = image
	s.rows = make([]R, n)
	for i := range s.rows {
		id := RowID(i)
		rec := s.record(id)
		s.codec.decodeInto(rec, &s.rows[i])
		s.indexAdd(id, rec)
	}
	return nil
}

func (s *Store[R]) readImage(size int64) ([]byte, error) {
	region, err := mmap.Map(s.f, size, mmap.Sequential)
	if errors.Is(err, errors.ErrUnsupported) {
		buf := make([]byte, size)
		_, err = io.ReadFull(io.NewSectionReader(s.f, 0, size), buf)
		if err != nil {
			return nil, err
		}
		return buf, nil
	} else if err != nil {
		return nil, err
	}
	defer region.Close()

	buf := make([]byte, size)
	copy(buf, region.Bytes())
	return buf, nil
}

// Close releases the file and drops the in-memory mirror. Calling Close more
// than once is a no-op.
func (s *Store[R]) Close() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	s.rows, s.image, s.indexes = nil, nil, nil

	err := errors.Join(lockfile.Unlock(f), f.Close())
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "fixdb: closed", slog.String("path", s.path))
	if err != nil {
		return storeErrf(ErrIO, "close", s.path, err, "")
	}
	return nil
}

func (s *Store[R]) Path() string {
	return s.path
}

func (s *Store[R]) Schema() *Schema {
	return s.schema
}

func (s *Store[R]) checkOpen(op string) error {
	if s.f == nil {
		return storeErrf(ErrClosed, op, s.path, nil, "")
	}
	return nil
}

func (s *Store[R]) checkRow(op string, id RowID) error {
	if err := s.checkOpen(op); err != nil {
		return err
	}
	if int(id) >= len(s.rows) {
		return storeErrf(ErrOutOfRange, op, s.path, nil, "store has %d rows", len(s.rows)).at(int64(id), -1)
	}
	return nil
}

// record returns the image bytes of row id.
func (s *Store[R]) record(id RowID) []byte {
	rs := s.schema.recordSize
	off := int(id) * rs
	return s.image[off : off+rs]
}

func (s *Store[R]) recordOffset(id RowID) int64 {
	return int64(id) * int64(s.schema.recordSize)
}

func (s *Store[R]) indexAdd(id RowID, rec []byte) {
	for _, fi := range s.schema.indexed {
		s.indexes[fi].Add(string(s.codec.fieldBytes(fi, rec)), id)
	}
}

// write stores data at off and syncs it.
func (s *Store[R]) write(op string, id RowID, data []byte, off int64) *StoreError {
	_, err := s.f.WriteAt(data, off)
	if err == nil && !s.noSync {
		err = mmap.Fdatasync(s.f)
	}
	if err != nil {
		return storeErrf(ErrIO, op, s.path, err, "").at(int64(id), off)
	}
	return nil
}

func (s *Store[R]) logMutation(op string, id RowID, attrs ...slog.Attr) {
	if !s.verbose {
		return
	}
	attrs = append([]slog.Attr{slog.String("path", s.path), slog.Uint64("row", uint64(id))}, attrs...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "fixdb: "+op, attrs...)
}
