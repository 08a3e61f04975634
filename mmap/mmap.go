// Package mmap provides read-only file mappings for replaying data files and
// a durable-write primitive for the files being mutated.
package mmap

import (
	"errors"
	"os"
)

var ErrTooLarge = errors.New("mmap: file too large to map")

type Hint uint

const (
	// Sequential requests aggressive read-ahead. Maps to MADV_SEQUENTIAL on Unix.
	Sequential Hint = 1 << 0

	// Random disables read-ahead. Maps to MADV_RANDOM on Unix.
	Random Hint = 1 << 1
)

func (h Hint) Has(v Hint) bool {
	return h&v != 0
}

// Region is a read-only view of the first Len() bytes of a file. The bytes
// must not be retained after Close.
type Region struct {
	data []byte
}

// Map maps the first size bytes of f for reading. A zero size yields an empty
// region without a system call, since empty mappings are rejected by most
// systems.
func Map(f *os.File, size int64, hint Hint) (*Region, error) {
	if size == 0 {
		return &Region{}, nil
	}
	if size < 0 || size > MaxSize {
		return nil, ErrTooLarge
	}
	b, err := mmap(f, int(size), hint)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: f.Name(), Err: err}
	}
	return &Region{data: b}, nil
}

func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) Len() int {
	return len(r.data)
}

// Close unmaps the region. It is safe to call more than once.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	b := r.data
	r.data = nil
	return munmap(b)
}
