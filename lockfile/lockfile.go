// Package lockfile places exclusive advisory locks on open data files, so that
// a second writer fails fast instead of interleaving with the first one.
//
// Locks belong to the open file, not to the process: opening the same path
// twice in one process and locking both handles fails on the second lock.
package lockfile

import (
	"errors"
	"os"
)

var ErrLocked = errors.New("lockfile: file is locked by another handle")

// Lock acquires an exclusive lock on f without blocking. It returns ErrLocked
// if another handle holds the lock. The lock is released by Unlock or by
// closing f.
func Lock(f *os.File) error {
	return lock(f)
}

// Unlock releases a lock acquired by Lock.
func Unlock(f *os.File) error {
	return unlock(f)
}
