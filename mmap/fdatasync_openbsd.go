package mmap

import "os"

// OpenBSD has no fdatasync(2).
func fdatasync(f *os.File) error {
	return f.Sync()
}
