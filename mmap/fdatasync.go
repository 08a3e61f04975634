package mmap

import "os"

// Fdatasync flushes the data written to f to stable storage, skipping
// metadata such as modification time where the system allows it.
//
// An error means the state of the written bytes on disk is unknown. Callers
// should stop writing to f and re-read it before trusting it again.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
