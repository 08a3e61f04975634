package fixdb

import "reflect"

// SchemaBuilder assembles a descriptor field by field, assigning contiguous
// offsets in the order fields are added.
type SchemaBuilder struct {
	fields []Field
	next   int
}

func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

func (b *SchemaBuilder) add(name string, size int, indexed bool) *SchemaBuilder {
	b.fields = append(b.fields, Field{
		Name:    name,
		Size:    size,
		Offset:  b.next,
		Indexed: indexed,
	})
	b.next += size
	return b
}

// Field appends a non-indexed field.
func (b *SchemaBuilder) Field(name string, size int) *SchemaBuilder {
	return b.add(name, size, false)
}

// Indexed appends a field with an equality index.
func (b *SchemaBuilder) Indexed(name string, size int) *SchemaBuilder {
	return b.add(name, size, true)
}

func (b *SchemaBuilder) Build() (*Schema, error) {
	return NewSchema(b.fields...)
}

func (b *SchemaBuilder) MustBuild() *Schema {
	return must(b.Build())
}

// SchemaOf derives a descriptor from the exported fields of struct R, in
// declaration order. A `fixdb:"name"` tag renames a field, `fixdb:",index"`
// marks it indexed, and `fixdb:"-"` leaves it out of the record.
func SchemaOf[R any]() (*Schema, error) {
	info, err := reflectRecord(reflect.TypeFor[R]())
	if err != nil {
		return nil, err
	}
	b := NewSchemaBuilder()
	for _, rf := range info.fields {
		b.add(rf.name, rf.size, rf.indexed)
	}
	return b.Build()
}

// MustSchemaOf is like SchemaOf but panics on error. Intended for package-level
// schema variables.
func MustSchemaOf[R any]() *Schema {
	return must(SchemaOf[R]())
}
