package fixdb

import (
	"errors"
	"slices"
	"testing"
)

func TestNewSchema(t *testing.T) {
	scm, err := NewSchema(
		Field{Name: "id", Size: 4, Offset: 0, Indexed: true},
		Field{Name: "score", Size: 4, Offset: 4},
		Field{Name: "tag", Size: 2, Offset: 8, Indexed: true},
	)
	if err != nil {
		t.Fatal(err)
	}
	if a, e := scm.RecordSize(), 10; a != e {
		t.Errorf("RecordSize = %d, wanted %d", a, e)
	}
	if a, e := scm.NumFields(), 3; a != e {
		t.Errorf("NumFields = %d, wanted %d", a, e)
	}
	if a, e := scm.IndexedFields(), []string{"id", "tag"}; !slices.Equal(a, e) {
		t.Errorf("IndexedFields = %v, wanted %v", a, e)
	}
	if f, ok := scm.Field("score"); !ok || f.Offset != 4 || f.Size != 4 || f.Indexed {
		t.Errorf("Field(score) = %+v, %v", f, ok)
	}
	if _, ok := scm.Field("nope"); ok {
		t.Errorf("Field(nope) found")
	}
	if a, e := scm.String(), "{id[0:4]* score[4:8] tag[8:10]*}"; a != e {
		t.Errorf("String = %q, wanted %q", a, e)
	}

	fields := scm.Fields()
	fields[0].Name = "mutated"
	if _, ok := scm.Field("id"); !ok {
		t.Errorf("Fields() exposed internal slice")
	}
}

func TestNewSchema_invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"empty", nil},
		{"no name", []Field{{Size: 4}}},
		{"zero size", []Field{{Name: "a", Size: 0}}},
		{"negative size", []Field{{Name: "a", Size: -1}}},
		{"gap", []Field{{Name: "a", Size: 4}, {Name: "b", Size: 4, Offset: 5}}},
		{"overlap", []Field{{Name: "a", Size: 4}, {Name: "b", Size: 4, Offset: 2}}},
		{"not at zero", []Field{{Name: "a", Size: 4, Offset: 1}}},
		{"duplicate", []Field{{Name: "a", Size: 4}, {Name: "a", Size: 4, Offset: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields...)
			if !errors.Is(err, ErrInvalidSchema) {
				t.Fatalf("NewSchema err = %v, wanted ErrInvalidSchema", err)
			}
		})
	}
}

func TestSchemaBuilder(t *testing.T) {
	scm, err := NewSchemaBuilder().Indexed("id", 4).Field("score", 8).Field("flag", 1).Build()
	if err != nil {
		t.Fatal(err)
	}
	expected := MustSchema(
		Field{Name: "id", Size: 4, Offset: 0, Indexed: true},
		Field{Name: "score", Size: 8, Offset: 4},
		Field{Name: "flag", Size: 1, Offset: 12},
	)
	if !scm.Equal(expected) {
		t.Errorf("Build = %v, wanted %v", scm, expected)
	}
	if scm.Equal(MustSchema(Field{Name: "id", Size: 4})) {
		t.Errorf("Equal with different schema = true")
	}
}

type (
	taggedRecord struct {
		ID      uint32 `fixdb:"id,index"`
		Score   float64
		Ignored string `fixdb:"-"`
		hidden  int
		Flags   [3]bool `fixdb:"flags"`
		Pos     point   `fixdb:",index"`
	}
	point struct {
		X, Y int16
	}
	badRecord struct {
		N int
	}
	stringRecord struct {
		S string
	}
	sealed struct {
		a, B uint16
	}
	padded struct {
		A uint16
		_ [2]byte
	}
	sealedRecord struct {
		P sealed
	}
	sealedArrayRecord struct {
		Ps [2]sealed
	}
	paddedRecord struct {
		P padded
	}
)

func TestSchemaOf(t *testing.T) {
	scm, err := SchemaOf[taggedRecord]()
	if err != nil {
		t.Fatal(err)
	}
	expected := MustSchema(
		Field{Name: "id", Size: 4, Offset: 0, Indexed: true},
		Field{Name: "Score", Size: 8, Offset: 4},
		Field{Name: "flags", Size: 3, Offset: 12},
		Field{Name: "Pos", Size: 4, Offset: 15, Indexed: true},
	)
	if !scm.Equal(expected) {
		t.Errorf("SchemaOf = %v, wanted %v", scm, expected)
	}
}

func TestSchemaOf_invalid(t *testing.T) {
	if _, err := SchemaOf[badRecord](); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("SchemaOf[badRecord] err = %v, wanted ErrInvalidSchema", err)
	}
	if _, err := SchemaOf[stringRecord](); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("SchemaOf[stringRecord] err = %v, wanted ErrInvalidSchema", err)
	}
	if _, err := SchemaOf[int32](); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("SchemaOf[int32] err = %v, wanted ErrInvalidSchema", err)
	}
}

func TestSchemaOf_nestedUnexported(t *testing.T) {
	if _, err := SchemaOf[sealedRecord](); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("SchemaOf[sealedRecord] err = %v, wanted ErrInvalidSchema", err)
	}
	if _, err := SchemaOf[sealedArrayRecord](); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("SchemaOf[sealedArrayRecord] err = %v, wanted ErrInvalidSchema", err)
	}
	scm := MustSchema(Field{Name: "P", Size: 4, Offset: 0})
	if _, err := NewCodec[sealedRecord](scm); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("NewCodec[sealedRecord] err = %v, wanted ErrInvalidSchema", err)
	}

	// Blank padding fields are skipped by the codec and stay allowed.
	c, err := NewCodec[paddedRecord](MustSchemaOf[paddedRecord]())
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, c.Schema().RecordSize())
	c.Encode(buf, &paddedRecord{P: padded{A: 7}})
	row, err := c.Decode(buf)
	if err != nil || row.P.A != 7 {
		t.Errorf("Decode = %+v, %v", row, err)
	}
}

func TestSchemaFile(t *testing.T) {
	scm := MustSchemaOf[taggedRecord]()
	data := MarshalSchema(scm)
	scm2, err := UnmarshalSchema(data)
	if err != nil {
		t.Fatal(err)
	}
	if !scm2.Equal(scm) {
		t.Errorf("UnmarshalSchema = %v, wanted %v", scm2, scm)
	}

	path := t.TempDir() + "/items.schema"
	if err := WriteSchemaFile(path, scm); err != nil {
		t.Fatal(err)
	}
	scm3, err := ReadSchemaFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !scm3.Equal(scm) {
		t.Errorf("ReadSchemaFile = %v, wanted %v", scm3, scm)
	}
}

func TestSchemaFile_invalid(t *testing.T) {
	if _, err := UnmarshalSchema([]byte{0xc1}); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("garbage: err = %v, wanted ErrInvalidSchema", err)
	}
	if _, err := UnmarshalSchema(nil); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("empty: err = %v, wanted ErrInvalidSchema", err)
	}
}
