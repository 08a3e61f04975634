// Package fixdbtest provides helpers for tests of code that uses fixdb stores.
package fixdbtest

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/andreyvit/fixdb"
)

const FileName = "data.fdb"

type TestStore[R any] struct {
	*fixdb.Store[R]

	T      testing.TB
	Dir    string
	Path   string
	Schema *fixdb.Schema
	Opt    fixdb.Options
}

// Open opens a store in a fresh temporary directory, logging to t. Unless
// o.Logger is set, verbose logging is enabled. The store is closed when the
// test ends.
func Open[R any](t testing.TB, scm *fixdb.Schema, o fixdb.Options) *TestStore[R] {
	dir := t.TempDir()
	return OpenAt[R](t, filepath.Join(dir, FileName), scm, o)
}

// OpenAt is like Open, but uses the given path. Use it to open a file prepared
// with WriteFile.
func OpenAt[R any](t testing.TB, path string, scm *fixdb.Schema, o fixdb.Options) *TestStore[R] {
	if o.Logger == nil {
		o.Logger = Logger(t)
		o.Verbose = true
	}
	s := &TestStore[R]{
		T:      t,
		Dir:    filepath.Dir(path),
		Path:   path,
		Schema: scm,
		Opt:    o,
	}
	s.open()
	t.Cleanup(func() {
		err := s.Store.Close()
		if err != nil {
			t.Error(err)
		}
	})
	return s
}

func (s *TestStore[R]) open() {
	s.T.Helper()
	st, err := fixdb.Open[R](s.Path, s.Schema, s.Opt)
	if err != nil {
		s.T.Fatalf("Open(%s) failed: %v", s.Path, err)
	}
	s.Store = st
}

// Reopen closes the store and opens the same file again, rebuilding the
// mirror and indexes from disk.
func (s *TestStore[R]) Reopen() {
	s.T.Helper()
	if err := s.Store.Close(); err != nil {
		s.T.Fatalf("Close failed: %v", err)
	}
	s.open()
}

func (s *TestStore[R]) Append(row R) fixdb.RowID {
	s.T.Helper()
	id, err := s.Store.Append(row)
	if err != nil {
		s.T.Fatalf("Append(%+v) failed: %v", row, err)
	}
	return id
}

func (s *TestStore[R]) Row(id fixdb.RowID) R {
	s.T.Helper()
	row, err := s.Store.Row(id)
	if err != nil {
		s.T.Fatalf("Row(%d) failed: %v", id, err)
	}
	return row
}

// LookupEq checks that field == value matches exactly the expected rows.
func (s *TestStore[R]) LookupEq(field string, value any, expected ...fixdb.RowID) {
	s.T.Helper()
	actual, err := s.Store.Lookup(field, value)
	if err != nil {
		s.T.Errorf("Lookup(%s, %v) failed: %v", field, value, err)
		return
	}
	if !slices.Equal(actual, expected) {
		s.T.Errorf("Lookup(%s, %v) = %v, wanted %v", field, value, actual, expected)
	}
}

// Verify fails the test if the mirror or indexes disagree with the file.
func (s *TestStore[R]) Verify() {
	s.T.Helper()
	if err := s.Store.Verify(); err != nil {
		s.T.Fatalf("Verify failed: %v", err)
	}
}

// Data returns the current file contents.
func (s *TestStore[R]) Data() []byte {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		s.T.Fatalf("when reading %v: %v", s.Path, err)
	}
	return b
}

// Eq checks the file contents against the given byte specs (see Expand).
func (s *TestStore[R]) Eq(expected ...string) {
	s.T.Helper()
	BytesEq(s.T, s.Data(), Expand(expected...))
}

// WriteFile writes the given byte specs to path.
func WriteFile(t testing.TB, path string, specs ...string) {
	t.Helper()
	err := os.WriteFile(path, Expand(specs...), 0o644)
	if err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that writes to t.Log at debug level.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
	}))
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	msg = strings.TrimSuffix(msg, "\n")
	c.t.Log(msg)
	return origLen, nil
}

// U16, U32 and U64 return the hex of v in host byte order, for use in Expand specs.
func U16(v uint16) string { return hex.EncodeToString(binary.NativeEndian.AppendUint16(nil, v)) }
func U32(v uint32) string { return hex.EncodeToString(binary.NativeEndian.AppendUint32(nil, v)) }
func U64(v uint64) string { return hex.EncodeToString(binary.NativeEndian.AppendUint64(nil, v)) }

// Expand turns whitespace-separated byte specs into bytes. Each element is hex
// (underscores allowed as separators) or 'text, optionally followed by *N to
// repeat it. Anything after / is a comment.
func Expand(specs ...string) []byte {
	var b []byte
	for _, spec := range specs {
		for _, elem := range strings.Fields(spec) {
			base, _, _ := strings.Cut(elem, "/") // comment
			if base == "" {
				continue
			}

			base, repStr, _ := strings.Cut(base, "*")
			rep := 1
			if repStr != "" {
				var err error
				rep, err = strconv.Atoi(repStr)
				if err != nil {
					panic(fmt.Sprintf("invalid repeat count %q in element %q", repStr, elem))
				}
			}

			var chunk []byte
			if alpha, ok := strings.CutPrefix(base, "'"); ok {
				chunk = []byte(alpha)
			} else {
				var err error
				chunk, err = hex.DecodeString(strings.ReplaceAll(base, "_", ""))
				if err != nil {
					panic(fmt.Errorf("%w in element %q", err, elem))
				}
			}
			for range rep {
				b = append(b, chunk...)
			}
		}
	}
	return b
}

func HexDump(b []byte, highlightOff int) string {
	var buf strings.Builder
	var off int
	n := len(b)
	for {
		fmt.Fprintf(&buf, "%08x", off)
		if off >= n {
			buf.WriteByte('\n')
			break
		}
		buf.WriteByte(' ')
		for i := range 8 {
			if off+i >= n {
				buf.WriteString("   ")
			} else {
				if highlightOff >= 0 && off+i == highlightOff {
					buf.WriteByte('>')
				} else {
					buf.WriteByte(' ')
				}
				fmt.Fprintf(&buf, "%02x", b[off+i])
			}
		}
		buf.WriteString("  |")
		for i := range 8 {
			if off+i < n {
				v := b[off+i]
				if v >= 32 && v <= 126 {
					buf.WriteByte(v)
				} else {
					buf.WriteByte('.')
				}
			}
		}
		off += 8
		buf.WriteString("|\n")
		if off >= n {
			break
		}
	}
	return buf.String()
}

func BytesEq(t testing.TB, a, e []byte) bool {
	if !bytes.Equal(a, e) {
		an, en := len(a), len(e)
		off := min(an, en)
		for i := range min(an, en) {
			if a[i] != e[i] {
				off = i
				break
			}
		}

		t.Helper()
		t.Errorf("** got:\n%v\nwanted:\n%v\nfirst difference offset: 0x%x (%d)", HexDump(a, off), HexDump(e, off), off, off)
		return false
	}
	return true
}
