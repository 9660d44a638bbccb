package wirefield

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Step addresses one level of nesting inside a message: either the
// Index-th occurrence of a field, or the map entry of a field whose
// key field serializes to Key.
type Step struct {
	Field protowire.Number
	Index int

	// Map-key addressing. When KeyField is nonzero the step addresses
	// the entry whose key field contents equal Key, and Index is ignored.
	KeyField protowire.Number
	KeyType  FieldType
	Key      []byte
}

// IsMapKey reports whether the step addresses a map entry by key
func (s Step) IsMapKey() bool {
	return s.KeyField != 0
}

// Equal reports whether two steps address the same occurrence
func (s Step) Equal(o Step) bool {
	return s.Field == o.Field && s.Index == o.Index &&
		s.KeyField == o.KeyField && s.KeyType == o.KeyType &&
		bytes.Equal(s.Key, o.Key)
}

// Path is the resolved, step-wise address of a field occurrence
// inside a serialized message.
type Path []Step

// HasPrefix reports whether p starts with all of prefix's steps
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, s := range prefix {
		if !p[i].Equal(s) {
			return false
		}
	}
	return true
}

// TrimPrefix removes the steps already consumed by an ancestor's base
// path, leaving the suffix this expansion level resolves itself.
func (p Path) TrimPrefix(prefix Path) Path {
	if !p.HasPrefix(prefix) {
		return p
	}
	return p[len(prefix):]
}

// String renders the path in its textual syntax
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p {
		if s.IsMapKey() {
			fmt.Fprintf(&b, "/%d[@%d=%x]", s.Field, s.KeyField, s.Key)
		} else {
			fmt.Fprintf(&b, "/%d[%d]", s.Field, s.Index)
		}
	}
	return b.String()
}

// ParsePath converts textual path syntax into steps:
//
//	/<fieldNumber>[<index>]/<fieldNumber>[@<keyField>=<keyText>]/...
//
// The leading slash is optional and a missing [index] means index 0.
// keyTypes supplies the serialization type for each map-key step in
// order of appearance; key text is serialized to its canonical form
// immediately so later comparisons are byte-wise.
func ParsePath(text string, keyTypes []FieldType) (Path, error) {
	text = strings.TrimPrefix(text, "/")
	if text == "" {
		return nil, nil
	}

	var path Path
	keyIndex := 0
	for _, segment := range strings.Split(text, "/") {
		if segment == "" {
			return nil, fmt.Errorf("empty path segment in %q", text)
		}
		step, usedKey, err := parseSegment(segment, keyTypes, keyIndex)
		if err != nil {
			return nil, err
		}
		if usedKey {
			keyIndex++
		}
		path = append(path, step)
	}
	return path, nil
}

func parseSegment(segment string, keyTypes []FieldType, keyIndex int) (Step, bool, error) {
	fieldText := segment
	indexText := ""
	if open := strings.IndexByte(segment, '['); open >= 0 {
		if !strings.HasSuffix(segment, "]") {
			return Step{}, false, fmt.Errorf("unterminated index in segment %q", segment)
		}
		fieldText = segment[:open]
		indexText = segment[open+1 : len(segment)-1]
	}

	field, err := strconv.ParseInt(fieldText, 10, 32)
	if err != nil || field <= 0 {
		return Step{}, false, fmt.Errorf("invalid field number in segment %q", segment)
	}
	step := Step{Field: protowire.Number(field)}

	if indexText == "" {
		return step, false, nil
	}

	if strings.HasPrefix(indexText, "@") {
		eq := strings.IndexByte(indexText, '=')
		if eq < 0 {
			return Step{}, false, fmt.Errorf("missing '=' in map-key segment %q", segment)
		}
		keyField, err := strconv.ParseInt(indexText[1:eq], 10, 32)
		if err != nil || keyField <= 0 {
			return Step{}, false, fmt.Errorf("invalid key field number in segment %q", segment)
		}
		if keyIndex >= len(keyTypes) {
			return Step{}, false, fmt.Errorf("no key type supplied for map-key segment %q", segment)
		}
		keyType := keyTypes[keyIndex]
		key, err := SerializeText(indexText[eq+1:], keyType)
		if err != nil {
			return Step{}, false, fmt.Errorf("bad map key in segment %q: %w", segment, err)
		}
		step.KeyField = protowire.Number(keyField)
		step.KeyType = keyType
		step.Key = key
		return step, true, nil
	}

	index, err := strconv.Atoi(indexText)
	if err != nil || index < 0 {
		return Step{}, false, fmt.Errorf("invalid index in segment %q", segment)
	}
	step.Index = index
	return step, false, nil
}
