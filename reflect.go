package fixdb

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
)

const tagName = "fixdb"

var recordInfoCache sync.Map

// recordField is a persisted field of a record struct.
type recordField struct {
	name    string
	index   []int
	typ     reflect.Type
	size    int
	indexed bool
}

type recordInfo struct {
	typ    reflect.Type
	fields []recordField
	byName map[string]int
}

func reflectRecord(typ reflect.Type) (*recordInfo, error) {
	if v, ok := recordInfoCache.Load(typ); ok {
		return v.(*recordInfo), nil
	}
	info, err := reflectRecordWithoutCache(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := recordInfoCache.LoadOrStore(typ, info)
	return actual.(*recordInfo), nil
}

func reflectRecordWithoutCache(typ reflect.Type) (*recordInfo, error) {
	if typ.Kind() != reflect.Struct {
		return nil, schemaErrf("%v is not a struct", typ)
	}
	info := &recordInfo{
		typ:    typ,
		byName: make(map[string]int),
	}
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, indexed, skip := parseFieldTag(sf)
		if skip {
			continue
		}
		size := fixedSize(sf.Type)
		if size <= 0 {
			return nil, schemaErrf("%v.%s: %v is not a fixed-size type", typ, sf.Name, sf.Type)
		}
		if path := unexportedPath(sf.Type); path != "" {
			return nil, schemaErrf("%v.%s: %v has unexported field %s", typ, sf.Name, sf.Type, path)
		}
		if _, dup := info.byName[name]; dup {
			return nil, schemaErrf("%v: duplicate field name %q", typ, name)
		}
		info.byName[name] = len(info.fields)
		info.fields = append(info.fields, recordField{
			name:    name,
			index:   sf.Index,
			typ:     sf.Type,
			size:    size,
			indexed: indexed,
		})
	}
	if len(info.fields) == 0 {
		return nil, schemaErrf("%v has no persisted fields", typ)
	}
	return info, nil
}

// parseFieldTag handles `fixdb:"name,index"` and `fixdb:"-"`.
func parseFieldTag(sf reflect.StructField) (name string, indexed, skip bool) {
	tag, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return sf.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "index" {
			indexed = true
		}
	}
	return name, indexed, false
}

// fixedSize returns the encoded size of typ, or -1 if typ has no fixed size.
func fixedSize(typ reflect.Type) int {
	switch typ.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return -1
	}
	return binary.Size(reflect.Zero(typ).Interface())
}

// unexportedPath returns the path to the first unexported non-blank field
// nested in typ, or "". Such fields are counted by encoding/binary but cannot
// be set when decoding.
func unexportedPath(typ reflect.Type) string {
	switch typ.Kind() {
	case reflect.Array:
		if p := unexportedPath(typ.Elem()); p != "" {
			return "[]." + p
		}
	case reflect.Struct:
		for i := range typ.NumField() {
			sf := typ.Field(i)
			if sf.Name == "_" {
				continue
			}
			if !sf.IsExported() {
				return sf.Name
			}
			if p := unexportedPath(sf.Type); p != "" {
				return sf.Name + "." + p
			}
		}
	}
	return ""
}

type fieldEncoder func(dst []byte, v reflect.Value)
type fieldDecoder func(src []byte, v reflect.Value)

var order = binary.NativeEndian

func fieldCodecOf(typ reflect.Type) (fieldEncoder, fieldDecoder) {
	switch typ.Kind() {
	case reflect.Bool:
		return encodeBool, decodeBool
	case reflect.Int8:
		return func(dst []byte, v reflect.Value) { dst[0] = byte(v.Int()) },
			func(src []byte, v reflect.Value) { v.SetInt(int64(int8(src[0]))) }
	case reflect.Uint8:
		return func(dst []byte, v reflect.Value) { dst[0] = byte(v.Uint()) },
			func(src []byte, v reflect.Value) { v.SetUint(uint64(src[0])) }
	case reflect.Int16:
		return func(dst []byte, v reflect.Value) { order.PutUint16(dst, uint16(v.Int())) },
			func(src []byte, v reflect.Value) { v.SetInt(int64(int16(order.Uint16(src)))) }
	case reflect.Uint16:
		return func(dst []byte, v reflect.Value) { order.PutUint16(dst, uint16(v.Uint())) },
			func(src []byte, v reflect.Value) { v.SetUint(uint64(order.Uint16(src))) }
	case reflect.Int32:
		return func(dst []byte, v reflect.Value) { order.PutUint32(dst, uint32(v.Int())) },
			func(src []byte, v reflect.Value) { v.SetInt(int64(int32(order.Uint32(src)))) }
	case reflect.Uint32:
		return func(dst []byte, v reflect.Value) { order.PutUint32(dst, uint32(v.Uint())) },
			func(src []byte, v reflect.Value) { v.SetUint(uint64(order.Uint32(src))) }
	case reflect.Int64:
		return func(dst []byte, v reflect.Value) { order.PutUint64(dst, uint64(v.Int())) },
			func(src []byte, v reflect.Value) { v.SetInt(int64(order.Uint64(src))) }
	case reflect.Uint64:
		return func(dst []byte, v reflect.Value) { order.PutUint64(dst, v.Uint()) },
			func(src []byte, v reflect.Value) { v.SetUint(order.Uint64(src)) }
	case reflect.Float32:
		return func(dst []byte, v reflect.Value) { order.PutUint32(dst, math.Float32bits(float32(v.Float()))) },
			func(src []byte, v reflect.Value) { v.SetFloat(float64(math.Float32frombits(order.Uint32(src)))) }
	case reflect.Float64:
		return func(dst []byte, v reflect.Value) { order.PutUint64(dst, math.Float64bits(v.Float())) },
			func(src []byte, v reflect.Value) { v.SetFloat(math.Float64frombits(order.Uint64(src))) }
	default:
		// arrays, structs, complex numbers
		return encodeBinary, decodeBinary
	}
}

func encodeBool(dst []byte, v reflect.Value) {
	if v.Bool() {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
}

func decodeBool(src []byte, v reflect.Value) {
	v.SetBool(src[0] != 0)
}

func encodeBinary(dst []byte, v reflect.Value) {
	must(binary.Encode(dst, order, v.Interface()))
}

func decodeBinary(src []byte, v reflect.Value) {
	must(binary.Decode(src, order, v.Addr().Interface()))
}

// convertValue returns value as a typ, refusing lossy integer conversions.
func convertValue(value any, typ reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil, expected %v", ErrFieldType, typ)
	}
	if v.Type() == typ {
		return v, nil
	}
	target := reflect.New(typ).Elem()
	fk, vk := typ.Kind(), v.Kind()
	switch {
	case isIntKind(fk) && isIntKind(vk):
		if target.OverflowInt(v.Int()) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %v", ErrFieldType, value, typ)
		}
	case isUintKind(fk) && isUintKind(vk):
		if target.OverflowUint(v.Uint()) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %v", ErrFieldType, value, typ)
		}
	case isIntKind(fk) && isUintKind(vk):
		if u := v.Uint(); u > math.MaxInt64 || target.OverflowInt(int64(u)) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %v", ErrFieldType, value, typ)
		}
	case isUintKind(fk) && isIntKind(vk):
		if i := v.Int(); i < 0 || target.OverflowUint(uint64(i)) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %v", ErrFieldType, value, typ)
		}
	case isFloatKind(fk) && isFloatKind(vk):
	case fk == vk && v.Type().ConvertibleTo(typ):
	default:
		return reflect.Value{}, fmt.Errorf("%w: %T, expected %v", ErrFieldType, value, typ)
	}
	target.Set(v.Convert(typ))
	return target, nil
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
