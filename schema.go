package fixdb

import (
	"slices"
	"strconv"
	"strings"
)

// Field describes one fixed-size field of a record: Size bytes starting at
// Offset within the record.
type Field struct {
	Name    string
	Size    int
	Offset  int
	Indexed bool
}

func (f Field) end() int {
	return f.Offset + f.Size
}

func (f Field) String() string {
	var buf strings.Builder
	buf.WriteString(f.Name)
	buf.WriteByte('[')
	buf.WriteString(strconv.Itoa(f.Offset))
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(f.end()))
	buf.WriteByte(']')
	if f.Indexed {
		buf.WriteString("*")
	}
	return buf.String()
}

// Schema is an immutable record layout descriptor. Fields are contiguous and
// cover exactly [0, RecordSize).
type Schema struct {
	fields       []Field
	fieldsByName map[string]int
	indexed      []int
	recordSize   int
}

// NewSchema validates the descriptor and returns a Schema. Fields must be
// listed in offset order.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, schemaErrf("no fields")
	}
	scm := &Schema{
		fields:       slices.Clone(fields),
		fieldsByName: make(map[string]int, len(fields)),
	}
	var next int
	for i, f := range scm.fields {
		if f.Name == "" {
			return nil, schemaErrf("field %d: name is required", i)
		}
		if f.Size <= 0 {
			return nil, schemaErrf("field %s: size must be positive, got %d", f.Name, f.Size)
		}
		if f.Offset != next {
			return nil, schemaErrf("field %s: offset %d, expected %d", f.Name, f.Offset, next)
		}
		if _, dup := scm.fieldsByName[f.Name]; dup {
			return nil, schemaErrf("duplicate field %s", f.Name)
		}
		scm.fieldsByName[f.Name] = i
		if f.Indexed {
			scm.indexed = append(scm.indexed, i)
		}
		next = f.end()
	}
	scm.recordSize = next
	return scm, nil
}

// MustSchema is like NewSchema but panics on an invalid descriptor.
func MustSchema(fields ...Field) *Schema {
	return must(NewSchema(fields...))
}

func (scm *Schema) RecordSize() int {
	return scm.recordSize
}

func (scm *Schema) NumFields() int {
	return len(scm.fields)
}

// Fields returns a copy of the field list in offset order.
func (scm *Schema) Fields() []Field {
	return slices.Clone(scm.fields)
}

// Field returns the field with the given name.
func (scm *Schema) Field(name string) (Field, bool) {
	i, ok := scm.fieldsByName[name]
	if !ok {
		return Field{}, false
	}
	return scm.fields[i], true
}

func (scm *Schema) fieldPos(name string) int {
	if i, ok := scm.fieldsByName[name]; ok {
		return i
	}
	return -1
}

// IndexedFields returns the names of indexed fields in offset order.
func (scm *Schema) IndexedFields() []string {
	names := make([]string, len(scm.indexed))
	for i, fi := range scm.indexed {
		names[i] = scm.fields[fi].Name
	}
	return names
}

func (scm *Schema) Equal(other *Schema) bool {
	if scm == other {
		return true
	}
	if scm == nil || other == nil {
		return false
	}
	return slices.Equal(scm.fields, other.fields)
}

func (scm *Schema) String() string {
	parts := make([]string, len(scm.fields))
	for i, f := range scm.fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
