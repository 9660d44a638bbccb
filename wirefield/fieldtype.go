// Package wirefield reads and replaces addressed field occurrences
// inside serialized protobuf wire data without decoding unrelated
// fields. It is the byte-level substrate of the template expansion
// engine: fields are located by (field number, index) or map-key
// steps, extracted as serialized contents, and spliced back in place.
package wirefield

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// FieldType identifies the serialization type of a field's contents.
// It determines the wire type used for tags and how textual values
// are converted to canonical serialized form.
type FieldType int

const (
	// TypeNone is the zero value for an unspecified field type
	TypeNone FieldType = iota
	// TypeDouble is a 64-bit float, fixed64 wire encoding
	TypeDouble
	// TypeFloat is a 32-bit float, fixed32 wire encoding
	TypeFloat
	// TypeInt64 is a signed varint
	TypeInt64
	// TypeUint64 is an unsigned varint
	TypeUint64
	// TypeInt32 is a signed varint
	TypeInt32
	// TypeUint32 is an unsigned varint
	TypeUint32
	// TypeSint32 is a zigzag-encoded varint
	TypeSint32
	// TypeSint64 is a zigzag-encoded varint
	TypeSint64
	// TypeFixed32 is an unsigned 4-byte value
	TypeFixed32
	// TypeFixed64 is an unsigned 8-byte value
	TypeFixed64
	// TypeSfixed32 is a signed 4-byte value
	TypeSfixed32
	// TypeSfixed64 is a signed 8-byte value
	TypeSfixed64
	// TypeBool is a varint holding 0 or 1
	TypeBool
	// TypeEnum is a varint holding an enumerator number
	TypeEnum
	// TypeString is length-delimited UTF-8 text
	TypeString
	// TypeBytes is length-delimited raw bytes
	TypeBytes
	// TypeMessage is a length-delimited embedded message
	TypeMessage
)

var fieldTypeNames = map[FieldType]string{
	TypeNone:     "none",
	TypeDouble:   "double",
	TypeFloat:    "float",
	TypeInt64:    "int64",
	TypeUint64:   "uint64",
	TypeInt32:    "int32",
	TypeUint32:   "uint32",
	TypeSint32:   "sint32",
	TypeSint64:   "sint64",
	TypeFixed32:  "fixed32",
	TypeFixed64:  "fixed64",
	TypeSfixed32: "sfixed32",
	TypeSfixed64: "sfixed64",
	TypeBool:     "bool",
	TypeEnum:     "enum",
	TypeString:   "string",
	TypeBytes:    "bytes",
	TypeMessage:  "message",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON renders the type as its lowercase name
func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a lowercase type name
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for ft, n := range fieldTypeNames {
		if n == name {
			*t = ft
			return nil
		}
	}
	return fmt.Errorf("unknown field type %q", name)
}

// WireType returns the wire type used to encode fields of this type
func (t FieldType) WireType() protowire.Type {
	switch t {
	case TypeDouble, TypeFixed64, TypeSfixed64:
		return protowire.Fixed64Type
	case TypeFloat, TypeFixed32, TypeSfixed32:
		return protowire.Fixed32Type
	case TypeString, TypeBytes, TypeMessage:
		return protowire.BytesType
	default:
		return protowire.VarintType
	}
}

// SerializeText converts textual value content to its canonical
// serialized form (the field contents without a tag). Map keys are
// always compared in this form, never as source text.
func SerializeText(text string, t FieldType) ([]byte, error) {
	switch t {
	case TypeString, TypeBytes:
		return []byte(text), nil
	case TypeBool:
		switch text {
		case "true", "1":
			return protowire.AppendVarint(nil, 1), nil
		case "false", "0":
			return protowire.AppendVarint(nil, 0), nil
		}
		return nil, fmt.Errorf("cannot parse %q as bool", text)
	case TypeInt32, TypeInt64, TypeEnum:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendVarint(nil, uint64(n)), nil
	case TypeUint32, TypeUint64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendVarint(nil, n), nil
	case TypeSint32, TypeSint64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendVarint(nil, protowire.EncodeZigZag(n)), nil
	case TypeFixed32:
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendFixed32(nil, uint32(n)), nil
	case TypeSfixed32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendFixed32(nil, uint32(int32(n))), nil
	case TypeFixed64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendFixed64(nil, n), nil
	case TypeSfixed64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as %s", text, t)
		}
		return protowire.AppendFixed64(nil, uint64(n)), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", text)
		}
		return protowire.AppendFixed32(nil, math.Float32bits(float32(f))), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as double", text)
		}
		return protowire.AppendFixed64(nil, math.Float64bits(f)), nil
	default:
		return nil, fmt.Errorf("cannot serialize text as %s", t)
	}
}

// SerializeNumber converts a numeric value to serialized field contents
func SerializeNumber(n float64, t FieldType) ([]byte, error) {
	switch t {
	case TypeDouble:
		return protowire.AppendFixed64(nil, math.Float64bits(n)), nil
	case TypeFloat:
		return protowire.AppendFixed32(nil, math.Float32bits(float32(n))), nil
	case TypeBool:
		if n != 0 {
			return protowire.AppendVarint(nil, 1), nil
		}
		return protowire.AppendVarint(nil, 0), nil
	case TypeInt32, TypeInt64, TypeEnum:
		return protowire.AppendVarint(nil, uint64(int64(n))), nil
	case TypeUint32, TypeUint64:
		return protowire.AppendVarint(nil, uint64(n)), nil
	case TypeSint32, TypeSint64:
		return protowire.AppendVarint(nil, protowire.EncodeZigZag(int64(n))), nil
	case TypeFixed32:
		return protowire.AppendFixed32(nil, uint32(n)), nil
	case TypeSfixed32:
		return protowire.AppendFixed32(nil, uint32(int32(n))), nil
	case TypeFixed64:
		return protowire.AppendFixed64(nil, uint64(n)), nil
	case TypeSfixed64:
		return protowire.AppendFixed64(nil, uint64(int64(n))), nil
	case TypeString:
		return []byte(strconv.FormatFloat(n, 'g', -1, 64)), nil
	default:
		return nil, fmt.Errorf("cannot serialize number as %s", t)
	}
}
