package fixdb

import (
	"fmt"
	"reflect"
)

// Codec encodes records of type R to and from their fixed-size form as laid
// out by a Schema. Values are written in host byte order.
type Codec[R any] struct {
	schema *Schema
	fields []codecField // aligned with schema.fields
}

type codecField struct {
	Field
	index  []int
	typ    reflect.Type
	encode fieldEncoder
	decode fieldDecoder
}

// NewCodec binds scm to the struct type R. Every schema field must match a
// persisted struct field of the same encoded size, and every persisted struct
// field must be described by the schema.
func NewCodec[R any](scm *Schema) (*Codec[R], error) {
	if scm == nil {
		return nil, schemaErrf("nil schema")
	}
	info, err := reflectRecord(reflect.TypeFor[R]())
	if err != nil {
		return nil, err
	}
	c := &Codec[R]{
		schema: scm,
		fields: make([]codecField, len(scm.fields)),
	}
	for i, f := range scm.fields {
		ri, ok := info.byName[f.Name]
		if !ok {
			return nil, schemaErrf("%v has no field %s", info.typ, f.Name)
		}
		rf := info.fields[ri]
		if rf.size != f.Size {
			return nil, schemaErrf("%v.%s is %d bytes, schema says %d", info.typ, f.Name, rf.size, f.Size)
		}
		enc, dec := fieldCodecOf(rf.typ)
		c.fields[i] = codecField{
			Field:  f,
			index:  rf.index,
			typ:    rf.typ,
			encode: enc,
			decode: dec,
		}
	}
	for _, rf := range info.fields {
		if scm.fieldPos(rf.name) < 0 {
			return nil, schemaErrf("%v.%s is not described by the schema", info.typ, rf.name)
		}
	}
	return c, nil
}

func (c *Codec[R]) Schema() *Schema {
	return c.schema
}

// Encode writes row into dst, which must be exactly RecordSize bytes long.
func (c *Codec[R]) Encode(dst []byte, row *R) {
	if len(dst) != c.schema.recordSize {
		panic(fmt.Errorf("fixdb: encode buffer is %d bytes, record is %d", len(dst), c.schema.recordSize))
	}
	rowVal := reflect.ValueOf(row).Elem()
	for i := range c.fields {
		cf := &c.fields[i]
		cf.encode(dst[cf.Offset:cf.end()], rowVal.FieldByIndex(cf.index))
	}
}

// Append appends the encoding of row to buf.
func (c *Codec[R]) Append(buf []byte, row *R) []byte {
	off, buf := grow(buf, c.schema.recordSize)
	c.Encode(buf[off:], row)
	return buf
}

// Decode is the inverse of Encode. It fails with ErrCorruptRecord when src is
// not exactly one record long.
func (c *Codec[R]) Decode(src []byte) (R, error) {
	var row R
	if len(src) != c.schema.recordSize {
		return row, dataErrf(src, min(len(src), c.schema.recordSize), nil, "record is %d bytes, expected %d", len(src), c.schema.recordSize)
	}
	c.decodeInto(src, &row)
	return row, nil
}

func (c *Codec[R]) decodeInto(src []byte, row *R) {
	rowVal := reflect.ValueOf(row).Elem()
	for i := range c.fields {
		cf := &c.fields[i]
		cf.decode(src[cf.Offset:cf.end()], rowVal.FieldByIndex(cf.index))
	}
}

// decodeField sets a single field of row from its encoded bytes.
func (c *Codec[R]) decodeField(fi int, src []byte, row *R) {
	cf := &c.fields[fi]
	cf.decode(src, reflect.ValueOf(row).Elem().FieldByIndex(cf.index))
}

// EncodeField returns the encoding of value as the named field. The value
// must have the field's type or be losslessly convertible to it.
func (c *Codec[R]) EncodeField(name string, value any) ([]byte, error) {
	fi := c.schema.fieldPos(name)
	if fi < 0 {
		return nil, fmt.Errorf("%w %s", ErrUnknownField, name)
	}
	buf := make([]byte, c.fields[fi].Size)
	if err := c.encodeFieldInto(fi, buf, value); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Codec[R]) encodeFieldInto(fi int, dst []byte, value any) error {
	cf := &c.fields[fi]
	v, err := convertValue(value, cf.typ)
	if err != nil {
		return fmt.Errorf("%s: %w", cf.Name, err)
	}
	cf.encode(dst, v)
	return nil
}

// fieldBytes returns the slice of rec holding field fi.
func (c *Codec[R]) fieldBytes(fi int, rec []byte) []byte {
	f := &c.fields[fi]
	return rec[f.Offset:f.end()]
}
