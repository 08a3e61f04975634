package fixdb

import (
	"bytes"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// schemaDoc is the persisted form of a Schema.
type schemaDoc struct {
	Fields []fieldDoc `msgpack:"f"`
}

type fieldDoc struct {
	Name    string `msgpack:"n"`
	Size    int    `msgpack:"s"`
	Offset  int    `msgpack:"o"`
	Indexed bool   `msgpack:"i,omitempty"`
}

// MarshalSchema encodes scm as MsgPack, suitable for storing next to a data
// file so that its layout can be recovered without the Go record type.
func MarshalSchema(scm *Schema) []byte {
	doc := schemaDoc{
		Fields: make([]fieldDoc, len(scm.fields)),
	}
	for i, f := range scm.fields {
		doc.Fields[i] = fieldDoc{f.Name, f.Size, f.Offset, f.Indexed}
	}

	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(&doc)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode schema using MsgPack: %w", err))
	}
	return buf.Bytes()
}

// UnmarshalSchema decodes and validates a schema produced by MarshalSchema.
func UnmarshalSchema(data []byte) (*Schema, error) {
	var doc schemaDoc
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(data))
	err := dec.Decode(&doc)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode msgpack: %w", ErrInvalidSchema, err)
	}
	fields := make([]Field, len(doc.Fields))
	for i, fd := range doc.Fields {
		fields[i] = Field{fd.Name, fd.Size, fd.Offset, fd.Indexed}
	}
	return NewSchema(fields...)
}

func WriteSchemaFile(path string, scm *Schema) error {
	return os.WriteFile(path, MarshalSchema(scm), 0o666)
}

func ReadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalSchema(data)
}
