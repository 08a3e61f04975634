package fixdb

import "errors"

// ErrBucketNotFound is returned by snapshotTx.DeleteBucket when the bucket doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

// snapshotStorage is an ordered key-value backend that a store can be exported
// to and imported from.
type snapshotStorage interface {
	BeginTx(writable bool) (snapshotTx, error)
}

type snapshotTx interface {
	// Bucket returns the nested bucket sub of root bucket name, or nil.
	Bucket(name, sub string) snapshotBucket

	// CreateBucket creates the nested bucket sub, creating root bucket name as needed.
	CreateBucket(name, sub string) (snapshotBucket, error)

	// DeleteBucket deletes root bucket name together with everything in it.
	DeleteBucket(name string) error

	Commit() error

	// Rollback aborts the transaction. It is safe to call after Commit.
	Rollback() error

	// Size returns the backend size in bytes (0 if unknown).
	Size() int64
}

type snapshotBucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error

	// ForEach calls f for every pair in key order, stopping at the first error.
	ForEach(f func(k, v []byte) error) error

	KeyCount() int
}
