package fixdb

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"os"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/fixdb/mmap"
)

// A snapshot lives under one root bucket with two nested buckets: "rows" maps
// big-endian row ids to raw records, "meta" describes them.
const (
	snapshotRowsBucket = "rows"
	snapshotMetaBucket = "meta"
)

var (
	metaSchema    = []byte("schema")
	metaChecksum  = []byte("checksum")
	metaByteOrder = []byte("byte_order")
	metaRows      = []byte("rows")
)

// nativeOrderName identifies the host byte order records are encoded in.
func nativeOrderName() string {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return "le"
	}
	return "be"
}

// ExportBolt copies every record into bucket of bdb in a single transaction,
// replacing whatever the bucket held before.
func (s *Store[R]) ExportBolt(bdb *bbolt.DB, bucket string) error {
	return s.exportTo(newBoltStorage(bdb), bucket)
}

func (s *Store[R]) exportTo(stor snapshotStorage, bucket string) error {
	const op = "export"
	if err := s.checkOpen(op); err != nil {
		return err
	}
	fail := func(err error) error {
		return storeErrf(ErrIO, op, s.path, err, "bucket %q", bucket)
	}

	tx, err := stor.BeginTx(true)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()

	err = tx.DeleteBucket(bucket)
	if err != nil && err != ErrBucketNotFound {
		return fail(err)
	}
	rowsB, err := tx.CreateBucket(bucket, snapshotRowsBucket)
	if err != nil {
		return fail(err)
	}
	metaB, err := tx.CreateBucket(bucket, snapshotMetaBucket)
	if err != nil {
		return fail(err)
	}

	for i := range s.rows {
		id := RowID(i)
		if err := rowsB.Put(rowKey(id), s.record(id)); err != nil {
			return fail(err)
		}
	}

	ensure(metaB.Put(metaSchema, MarshalSchema(s.schema)))
	ensure(metaB.Put(metaChecksum, binary.BigEndian.AppendUint64(nil, s.Checksum())))
	ensure(metaB.Put(metaRows, binary.BigEndian.AppendUint64(nil, uint64(len(s.rows)))))
	ensure(metaB.Put(metaByteOrder, []byte(nativeOrderName())))

	size := tx.Size()
	if err := tx.Commit(); err != nil {
		return fail(err)
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "fixdb: exported",
		slog.String("path", s.path),
		slog.String("bucket", bucket),
		slog.Int("rows", len(s.rows)),
		slog.Int64("snapshot_bytes", size))
	return nil
}

// ImportBolt creates a store at path from a snapshot written by ExportBolt.
// The data file must be empty or absent, and scm must equal the schema the
// snapshot was exported with. The imported file is byte-identical to the
// exported one.
func ImportBolt[R any](path string, scm *Schema, bdb *bbolt.DB, bucket string, opt Options) (*Store[R], error) {
	return importFrom[R](path, scm, newBoltStorage(bdb), bucket, opt)
}

func importFrom[R any](path string, scm *Schema, stor snapshotStorage, bucket string, opt Options) (*Store[R], error) {
	const op = "import"
	tx, err := stor.BeginTx(false)
	if err != nil {
		return nil, storeErrf(ErrIO, op, path, err, "bucket %q", bucket)
	}
	defer tx.Rollback()

	metaB := tx.Bucket(bucket, snapshotMetaBucket)
	rowsB := tx.Bucket(bucket, snapshotRowsBucket)
	if metaB == nil || rowsB == nil {
		return nil, storeErrf(ErrOpen, op, path, nil, "no snapshot in bucket %q", bucket)
	}

	snapScm, err := UnmarshalSchema(metaB.Get(metaSchema))
	if err != nil {
		return nil, storeErrf(ErrInvalidSchema, op, path, err, "bucket %q", bucket)
	}
	if !snapScm.Equal(scm) {
		return nil, storeErrf(ErrInvalidSchema, op, path, nil, "snapshot schema %v differs from %v", snapScm, scm)
	}
	if order := string(metaB.Get(metaByteOrder)); order != nativeOrderName() {
		return nil, storeErrf(ErrInvalidSchema, op, path, nil, "snapshot byte order %q, host is %q", order, nativeOrderName())
	}
	sumRaw := metaB.Get(metaChecksum)
	if len(sumRaw) != 8 {
		return nil, storeErrf(ErrCorruptRecord, op, path, nil, "bucket %q: checksum is %d bytes", bucket, len(sumRaw))
	}
	wantSum := binary.BigEndian.Uint64(sumRaw)
	rowsRaw := metaB.Get(metaRows)
	if len(rowsRaw) != 8 {
		return nil, storeErrf(ErrCorruptRecord, op, path, nil, "bucket %q: row count is %d bytes", bucket, len(rowsRaw))
	}
	if want, have := binary.BigEndian.Uint64(rowsRaw), rowsB.KeyCount(); want != uint64(have) {
		return nil, storeErrf(ErrCorruptRecord, op, path, nil, "bucket %q: %d rows present, snapshot says %d", bucket, have, want)
	}

	_, statErr := os.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	s, err := Open[R](path, scm, opt)
	if err != nil {
		return nil, err
	}
	if n := s.Len(); n != 0 {
		s.Close()
		return nil, storeErrf(ErrOpen, op, path, nil, "target already holds %d rows", n)
	}

	// Sync once at the end rather than per record.
	s.noSync = true
	err = rowsB.ForEach(func(k, v []byte) error {
		id, ok := parseRowKey(k)
		if !ok || int(id) != s.Len() {
			return storeErrf(ErrCorruptRecord, op, path, nil, "bucket %q: unexpected key %s", bucket, hexstr(k)).at(int64(s.Len()), -1)
		}
		_, err := s.appendRaw(op, v)
		return err
	})
	s.noSync = opt.NoSync
	if err == nil && !opt.NoSync {
		if e := mmap.Fdatasync(s.f); e != nil {
			err = storeErrf(ErrIO, op, path, e, "")
		}
	}
	if err == nil {
		if sum := s.Checksum(); sum != wantSum {
			err = storeErrf(ErrMismatch, op, path, nil, "imported checksum %016x, snapshot says %016x", sum, wantSum)
		}
	}
	if err != nil {
		s.discardImport(created, err)
		return nil, err
	}

	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "fixdb: imported",
		slog.String("path", path),
		slog.String("bucket", bucket),
		slog.Int("rows", s.Len()))
	return s, nil
}

// discardImport closes a store whose import failed and leaves path as it was
// found: removed if the import created it, truncated to empty otherwise.
func (s *Store[R]) discardImport(created bool, cause error) {
	f, path := s.f, s.path
	var err error
	if !created {
		err = f.Truncate(0)
		if err == nil {
			err = mmap.Fdatasync(f)
		}
	}
	err = errors.Join(err, s.Close())
	if created {
		err = errors.Join(err, os.Remove(path))
	}
	attrs := []slog.Attr{slog.String("path", path), slog.Any("cause", cause)}
	if err != nil {
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "fixdb: failed to discard partial import", append(attrs, slog.Any("err", err))...)
	} else {
		s.logger.LogAttrs(context.Background(), slog.LevelInfo, "fixdb: discarded partial import", attrs...)
	}
}
