package fixdb

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStoreError(t *testing.T) {
	err := storeErrf(ErrIO, "patch", "/tmp/x.fdb", io.ErrShortWrite, "").at(3, 26).field("score")
	if a, e := err.Error(), "fixdb: patch /tmp/x.fdb row 3.score @26: i/o failure: short write"; a != e {
		t.Errorf("Error = %q, wanted %q", a, e)
	}
	if !errors.Is(err, ErrIO) || !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("errors.Is does not reach Kind and Err")
	}

	err = storeErrf(ErrCorruptRecord, "open", "x.fdb", nil, "trailing %d bytes", 3)
	if a, e := err.Error(), "fixdb: open x.fdb: corrupt record: trailing 3 bytes"; a != e {
		t.Errorf("Error = %q, wanted %q", a, e)
	}
	if errors.Is(err, ErrIO) {
		t.Errorf("unexpected match")
	}
}

func TestDataError(t *testing.T) {
	inner := errors.New("inner")
	err := dataErrf([]byte{0xAA, 0xBB}, 1, inner, "oops")
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("err = %T, wanted *DataError", err)
	}
	if !errors.Is(err, inner) || !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("errors.Is does not reach inner and ErrCorruptRecord")
	}
	if a, e := err.Error(), "oops at 1: inner: (2) aabb"; a != e {
		t.Errorf("Error = %q, wanted %q", a, e)
	}

	long := make([]byte, 200)
	err = dataErrf(long, 0, nil, "long")
	if s := err.Error(); !strings.Contains(s, "...") || !strings.HasPrefix(s, "long at 0: (200) ") {
		t.Errorf("Error = %q, wanted truncated dump", s)
	}
}
