package wirefield

import (
	"bytes"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// span marks the byte range of one encoded field occurrence within a
// message buffer: [start, end) covers tag and value, [valStart, end)
// the value alone.
type span struct {
	start    int
	valStart int
	end      int
	wireType protowire.Type
}

// fieldSpans scans the buffer and returns the spans of every
// occurrence of the given field, in encounter order.
func fieldSpans(msg []byte, field protowire.Number) ([]span, error) {
	var spans []span
	offset := 0
	for offset < len(msg) {
		num, typ, tagLen := protowire.ConsumeTag(msg[offset:])
		if tagLen < 0 {
			return nil, fmt.Errorf("corrupt tag at offset %d", offset)
		}
		valLen := protowire.ConsumeFieldValue(num, typ, msg[offset+tagLen:])
		if valLen < 0 {
			return nil, fmt.Errorf("corrupt field %d at offset %d", num, offset)
		}
		if num == field {
			spans = append(spans, span{
				start:    offset,
				valStart: offset + tagLen,
				end:      offset + tagLen + valLen,
				wireType: typ,
			})
		}
		offset += tagLen + valLen
	}
	return spans, nil
}

// contents extracts the serialized contents of one occurrence: the
// length-delimited payload for bytes-typed fields, the raw encoded
// scalar otherwise.
func contents(msg []byte, s span) ([]byte, error) {
	val := msg[s.valStart:s.end]
	if s.wireType == protowire.BytesType {
		payload, n := protowire.ConsumeBytes(val)
		if n < 0 {
			return nil, fmt.Errorf("corrupt length-delimited value")
		}
		return payload, nil
	}
	return val, nil
}

// AppendField encodes one field occurrence (tag plus contents) for the
// given field number and type, appending to dst.
func AppendField(dst []byte, field protowire.Number, t FieldType, content []byte) []byte {
	dst = protowire.AppendTag(dst, field, t.WireType())
	if t.WireType() == protowire.BytesType {
		return protowire.AppendBytes(dst, content)
	}
	return append(dst, content...)
}

// resolveIndex returns the occurrence index addressed by a step,
// matching map-key steps by canonical serialized key.
func resolveIndex(msg []byte, spans []span, step Step) (int, error) {
	if !step.IsMapKey() {
		return step.Index, nil
	}
	for i, s := range spans {
		entry, err := contents(msg, s)
		if err != nil {
			return 0, err
		}
		key, err := entryKey(entry, step.KeyField, step.KeyType)
		if err != nil {
			return 0, err
		}
		if bytes.Equal(key, step.Key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no map entry of field %d with the requested key", step.Field)
}

// entryKey extracts the serialized key contents from a map entry
// message, substituting the canonical default when the key is absent.
func entryKey(entry []byte, keyField protowire.Number, keyType FieldType) ([]byte, error) {
	spans, err := fieldSpans(entry, keyField)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		if keyType == TypeString || keyType == TypeBytes {
			return []byte{}, nil
		}
		return SerializeText("0", keyType)
	}
	return contents(entry, spans[0])
}

// GetFieldRange reads the serialized contents of count occurrences of
// the field addressed by path, starting at the addressed index. Only
// the addressed fields are decoded; everything else is skipped over.
func GetFieldRange(msg []byte, path Path, count int, t FieldType) ([][]byte, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	step := path[0]
	spans, err := fieldSpans(msg, step.Field)
	if err != nil {
		return nil, err
	}
	idx, err := resolveIndex(msg, spans, step)
	if err != nil {
		return nil, err
	}

	if len(path) > 1 {
		if idx >= len(spans) {
			return nil, fmt.Errorf("field %d index %d out of range (%d present)", step.Field, idx, len(spans))
		}
		inner, err := contents(msg, spans[idx])
		if err != nil {
			return nil, err
		}
		return GetFieldRange(inner, path[1:], count, t)
	}

	if idx+count > len(spans) {
		return nil, fmt.Errorf("field %d range [%d,%d) out of range (%d present)",
			step.Field, idx, idx+count, len(spans))
	}
	values := make([][]byte, 0, count)
	for _, s := range spans[idx : idx+count] {
		v, err := contents(msg, s)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// FieldCount returns the number of occurrences of the field addressed
// by the path's final step, after resolving the intermediate steps.
func FieldCount(msg []byte, path Path) (int, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("empty path")
	}
	step := path[0]
	spans, err := fieldSpans(msg, step.Field)
	if err != nil {
		return 0, err
	}
	if len(path) == 1 {
		return len(spans), nil
	}
	idx, err := resolveIndex(msg, spans, step)
	if err != nil {
		return 0, err
	}
	if idx >= len(spans) {
		return 0, fmt.Errorf("field %d index %d out of range (%d present)", step.Field, idx, len(spans))
	}
	inner, err := contents(msg, spans[idx])
	if err != nil {
		return 0, err
	}
	return FieldCount(inner, path[1:])
}

// ReplaceFieldRange splices values in place of count occurrences of
// the field addressed by path, starting at the addressed index.
// Passing zero values deletes the range; passing more than count
// grows a repeated field. Replacing an absent singular field
// (count covering no occurrence at index 0) appends at the end of
// the buffer. All unrelated bytes are preserved verbatim.
func ReplaceFieldRange(msg []byte, path Path, count int, t FieldType, values [][]byte) ([]byte, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	step := path[0]
	spans, err := fieldSpans(msg, step.Field)
	if err != nil {
		return nil, err
	}
	idx, err := resolveIndex(msg, spans, step)
	if err != nil {
		return nil, err
	}

	if len(path) > 1 {
		if idx >= len(spans) {
			return nil, fmt.Errorf("field %d index %d out of range (%d present)", step.Field, idx, len(spans))
		}
		s := spans[idx]
		inner, err := contents(msg, s)
		if err != nil {
			return nil, err
		}
		replaced, err := ReplaceFieldRange(inner, path[1:], count, t, values)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(msg)+len(replaced)-len(inner))
		out = append(out, msg[:s.start]...)
		out = AppendField(out, step.Field, TypeMessage, replaced)
		out = append(out, msg[s.end:]...)
		return out, nil
	}

	// Byte range being replaced. An absent or past-the-end range
	// becomes an insertion point: after the field's last occurrence,
	// or at the end of the buffer when the field is absent.
	var from, to int
	switch {
	case count == 0:
		if idx > len(spans) {
			return nil, fmt.Errorf("field %d index %d out of range (%d present)", step.Field, idx, len(spans))
		}
		switch {
		case idx < len(spans):
			from = spans[idx].start
		case len(spans) > 0:
			from = spans[len(spans)-1].end
		default:
			from = len(msg)
		}
		to = from
	case idx+count <= len(spans):
		for i := idx; i < idx+count-1; i++ {
			if spans[i].end != spans[i+1].start {
				return nil, fmt.Errorf("field %d occurrences [%d,%d) are not contiguous", step.Field, idx, idx+count)
			}
		}
		from, to = spans[idx].start, spans[idx+count-1].end
	case idx == len(spans):
		// Insertion past the last occurrence, including the absent
		// singular field case, appends at the end of the buffer.
		from = len(msg)
		if len(spans) > 0 {
			from = spans[len(spans)-1].end
		}
		to = from
	default:
		return nil, fmt.Errorf("field %d range [%d,%d) out of range (%d present)",
			step.Field, idx, idx+count, len(spans))
	}

	var encoded []byte
	for _, v := range values {
		encoded = AppendField(encoded, step.Field, t, v)
	}
	out := make([]byte, 0, len(msg)+len(encoded)-(to-from))
	out = append(out, msg[:from]...)
	out = append(out, encoded...)
	out = append(out, msg[to:]...)
	return out, nil
}
