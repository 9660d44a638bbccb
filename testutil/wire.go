// Package testutil provides wire-message construction helpers for
// graphcfg tests. Messages are built field by field in declaration
// order so byte-for-byte assertions stay deterministic.
package testutil

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// WireField is one encoded field for Message
type WireField func(dst []byte) []byte

// Message concatenates fields into one serialized message
func Message(fields ...WireField) []byte {
	var out []byte
	for _, f := range fields {
		out = f(out)
	}
	if out == nil {
		out = []byte{}
	}
	return out
}

// StringField encodes a length-delimited string field
func StringField(num int32, s string) WireField {
	return func(dst []byte) []byte {
		dst = protowire.AppendTag(dst, protowire.Number(num), protowire.BytesType)
		return protowire.AppendString(dst, s)
	}
}

// BytesField encodes a length-delimited bytes field
func BytesField(num int32, b []byte) WireField {
	return func(dst []byte) []byte {
		dst = protowire.AppendTag(dst, protowire.Number(num), protowire.BytesType)
		return protowire.AppendBytes(dst, b)
	}
}

// MessageField encodes an embedded message field
func MessageField(num int32, fields ...WireField) WireField {
	return BytesField(num, Message(fields...))
}

// VarintField encodes a varint field
func VarintField(num int32, v uint64) WireField {
	return func(dst []byte) []byte {
		dst = protowire.AppendTag(dst, protowire.Number(num), protowire.VarintType)
		return protowire.AppendVarint(dst, v)
	}
}

// Int32Field encodes a signed varint field
func Int32Field(num int32, v int32) WireField {
	return VarintField(num, uint64(int64(v)))
}

// DoubleField encodes a fixed64 double field
func DoubleField(num int32, v float64) WireField {
	return func(dst []byte) []byte {
		dst = protowire.AppendTag(dst, protowire.Number(num), protowire.Fixed64Type)
		return protowire.AppendFixed64(dst, math.Float64bits(v))
	}
}

// Varint returns the serialized contents of a varint value
func Varint(v uint64) []byte {
	return protowire.AppendVarint(nil, v)
}

// Double returns the serialized contents of a double value
func Double(v float64) []byte {
	return protowire.AppendFixed64(nil, math.Float64bits(v))
}
