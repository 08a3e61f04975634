package fixdb_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/fixdb"
	"github.com/andreyvit/fixdb/fixdbtest"
)

func openBolt(t testing.TB) *bbolt.DB {
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "snap.bolt"), 0o600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		bdb.Close()
	})
	return bdb
}

func TestExportImportBolt(t *testing.T) {
	src := fixdbtest.Open[Account](t, accountSchema, fixdb.Options{})
	src.Append(Account{Owner: owner("alice"), Kind: 1, Active: true, Balance: 100, Rate: 1.25})
	src.Append(Account{Owner: owner("bob"), Kind: 2, Balance: -7})
	src.Append(Account{Owner: owner("alice"), Kind: 2})

	bdb := openBolt(t)
	if err := src.ExportBolt(bdb, "accounts"); err != nil {
		t.Fatal(err)
	}
	// A second export replaces the first.
	src.Append(Account{Owner: owner("carol")})
	if err := src.ExportBolt(bdb, "accounts"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "copy.fdb")
	dst, err := fixdb.ImportBolt[Account](path, accountSchema, bdb, "accounts", fixdb.Options{Logger: fixdbtest.Logger(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	if a, e := dst.Len(), 4; a != e {
		t.Fatalf("Len = %d, wanted %d", a, e)
	}
	if a, e := dst.Checksum(), src.Checksum(); a != e {
		t.Errorf("Checksum = %x, wanted %x", a, e)
	}
	deepEqual(t, rowsOf(dst), rowsOf(src.Store))
	ids, err := dst.Lookup("owner", owner("alice"))
	if err != nil || len(ids) != 2 || ids[0] != 0 || ids[1] != 2 {
		t.Errorf("Lookup(alice) = %v, %v", ids, err)
	}
	if err := dst.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestImportBolt_errors(t *testing.T) {
	src := fixdbtest.Open[Account](t, accountSchema, fixdb.Options{})
	src.Append(Account{Owner: owner("alice")})
	bdb := openBolt(t)
	if err := src.ExportBolt(bdb, "accounts"); err != nil {
		t.Fatal(err)
	}
	opt := fixdb.Options{Logger: fixdbtest.Logger(t)}

	t.Run("missing bucket", func(t *testing.T) {
		_, err := fixdb.ImportBolt[Account](filepath.Join(t.TempDir(), "x.fdb"), accountSchema, bdb, "nope", opt)
		if !errors.Is(err, fixdb.ErrOpen) {
			t.Fatalf("err = %v, wanted ErrOpen", err)
		}
	})

	t.Run("schema mismatch", func(t *testing.T) {
		other := fixdb.NewSchemaBuilder().Indexed("owner", 8).Field("kind", 1).Field("active", 1).Field("balance", 8).Field("rate", 4).MustBuild()
		_, err := fixdb.ImportBolt[Account](filepath.Join(t.TempDir(), "x.fdb"), other, bdb, "accounts", opt)
		if !errors.Is(err, fixdb.ErrInvalidSchema) {
			t.Fatalf("err = %v, wanted ErrInvalidSchema", err)
		}
	})

	t.Run("non-empty target", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.fdb")
		fixdbtest.WriteFile(t, path, "00*22")
		_, err := fixdb.ImportBolt[Account](path, accountSchema, bdb, "accounts", opt)
		if !errors.Is(err, fixdb.ErrOpen) {
			t.Fatalf("err = %v, wanted ErrOpen", err)
		}
	})

	t.Run("tampered row", func(t *testing.T) {
		err := bdb.Update(func(tx *bbolt.Tx) error {
			rows := tx.Bucket([]byte("accounts")).Bucket([]byte("rows"))
			rec := append([]byte(nil), rows.Get([]byte{0, 0, 0, 0})...)
			rec[0] ^= 0xFF
			return rows.Put([]byte{0, 0, 0, 0}, rec)
		})
		if err != nil {
			t.Fatal(err)
		}
		dir := t.TempDir()
		fresh := filepath.Join(dir, "fresh.fdb")
		_, err = fixdb.ImportBolt[Account](fresh, accountSchema, bdb, "accounts", opt)
		if !errors.Is(err, fixdb.ErrMismatch) {
			t.Fatalf("err = %v, wanted ErrMismatch", err)
		}
		if _, err := os.Stat(fresh); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("failed import left %s behind: %v", fresh, err)
		}

		empty := filepath.Join(dir, "empty.fdb")
		fixdbtest.WriteFile(t, empty)
		_, err = fixdb.ImportBolt[Account](empty, accountSchema, bdb, "accounts", opt)
		if !errors.Is(err, fixdb.ErrMismatch) {
			t.Fatalf("err = %v, wanted ErrMismatch", err)
		}
		if st, err := os.Stat(empty); err != nil || st.Size() != 0 {
			t.Fatalf("failed import left %s as %v, %v", empty, st, err)
		}

		// Restoring the row makes a retry on the same paths succeed.
		err = bdb.Update(func(tx *bbolt.Tx) error {
			rows := tx.Bucket([]byte("accounts")).Bucket([]byte("rows"))
			rec := append([]byte(nil), rows.Get([]byte{0, 0, 0, 0})...)
			rec[0] ^= 0xFF
			return rows.Put([]byte{0, 0, 0, 0}, rec)
		})
		if err != nil {
			t.Fatal(err)
		}
		for _, path := range []string{fresh, empty} {
			dst, err := fixdb.ImportBolt[Account](path, accountSchema, bdb, "accounts", opt)
			if err != nil {
				t.Fatalf("retry %s: %v", path, err)
			}
			if a, e := dst.Checksum(), src.Checksum(); a != e {
				t.Errorf("retry %s: Checksum = %x, wanted %x", path, a, e)
			}
			dst.Close()
		}
	})
}
