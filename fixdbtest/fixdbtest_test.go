package fixdbtest

import (
	"bytes"
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		specs    []string
		expected []byte
	}{
		{nil, nil},
		{[]string{"01 02_03"}, []byte{1, 2, 3}},
		{[]string{"ab*3"}, []byte{0xab, 0xab, 0xab}},
		{[]string{"'hi", "00 /comment"}, []byte{'h', 'i', 0}},
		{[]string{"0102*2 ff"}, []byte{1, 2, 1, 2, 0xff}},
	}
	for _, tt := range tests {
		a := Expand(tt.specs...)
		if !bytes.Equal(a, tt.expected) {
			t.Errorf("Expand(%q) = %x, wanted %x", tt.specs, a, tt.expected)
		}
	}
}

func TestNativeHelpers(t *testing.T) {
	if a := Expand(U16(1), U32(1), U64(1)); len(a) != 14 {
		t.Fatalf("len = %d, wanted 14", len(a))
	}
	if a := Expand(U32(0x01020304)); !bytes.Equal(a, []byte{4, 3, 2, 1}) && !bytes.Equal(a, []byte{1, 2, 3, 4}) {
		t.Errorf("U32 = %x", a)
	}
}

func TestHexDump(t *testing.T) {
	out := HexDump([]byte("abcdefghij"), 9)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("HexDump =\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "00000000  61 62") || !strings.HasSuffix(lines[0], "|abcdefgh|") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], ">6a") || !strings.HasSuffix(lines[1], "|ij|") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
