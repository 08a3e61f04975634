package lockfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLock(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "dragonfly", "freebsd", "linux", "netbsd", "openbsd", "windows":
	default:
		t.Skipf("no file locking on %s", runtime.GOOS)
	}

	fn := filepath.Join(t.TempDir(), "data.bin")
	f1 := open(t, fn)
	f2 := open(t, fn)

	if err := Lock(f1); err != nil {
		t.Fatalf("Lock(f1) = %v, wanted nil", err)
	}
	if err := Lock(f2); err != ErrLocked {
		t.Fatalf("Lock(f2) while f1 holds the lock = %v, wanted ErrLocked", err)
	}
	if err := Unlock(f1); err != nil {
		t.Fatalf("Unlock(f1) = %v, wanted nil", err)
	}
	if err := Lock(f2); err != nil {
		t.Fatalf("Lock(f2) after unlock = %v, wanted nil", err)
	}
}

func TestLockReleasedOnClose(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "data.bin")
	f1 := open(t, fn)
	if err := Lock(f1); err != nil {
		t.Fatal(err)
	}
	f1.Close()

	f2 := open(t, fn)
	if err := Lock(f2); err != nil {
		t.Fatalf("Lock after closing the holder = %v, wanted nil", err)
	}
}

func open(t *testing.T, fn string) *os.File {
	t.Helper()
	f, err := os.OpenFile(fn, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
