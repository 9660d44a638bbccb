// Package value defines the tagged runtime value used by the template
// expression evaluator and the named-argument environment.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant of a TaggedValue is populated
type Kind int

const (
	// KindNone is the zero value for an unpopulated TaggedValue
	KindNone Kind = iota
	// KindNumber represents a float64 value
	KindNumber
	// KindString represents a string value
	KindString
	// KindList represents an ordered list of values
	KindList
	// KindDict represents an ordered sequence of named values
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "none"
	}
}

// Field is one named entry of a dict value
type Field struct {
	Name  string      `json:"name"`
	Value TaggedValue `json:"value"`
}

// TaggedValue is a discriminated union holding exactly one of
// number, string, list or dict. The zero value is the empty variant,
// used as the safe default when evaluation fails.
type TaggedValue struct {
	kind   Kind
	num    float64
	str    string
	list   []TaggedValue
	fields []Field
}

// Number creates a number value
func Number(n float64) TaggedValue {
	return TaggedValue{kind: KindNumber, num: n}
}

// String creates a string value
func String(s string) TaggedValue {
	return TaggedValue{kind: KindString, str: s}
}

// List creates a list value from its elements in order
func List(elems ...TaggedValue) TaggedValue {
	return TaggedValue{kind: KindList, list: elems}
}

// Dict creates a dict value from its fields in order
func Dict(fields ...Field) TaggedValue {
	return TaggedValue{kind: KindDict, fields: fields}
}

// Bool creates a number value carrying a boolean: 1 for true, 0 for false
func Bool(b bool) TaggedValue {
	if b {
		return Number(1)
	}
	return Number(0)
}

// Kind returns which variant is populated
func (v TaggedValue) Kind() Kind { return v.kind }

// IsEmpty reports whether no variant is populated
func (v TaggedValue) IsEmpty() bool { return v.kind == KindNone }

// Num returns the raw number variant without coercion
func (v TaggedValue) Num() float64 { return v.num }

// Str returns the raw string variant without coercion
func (v TaggedValue) Str() string { return v.str }

// Elems returns the list elements; nil for non-list values
func (v TaggedValue) Elems() []TaggedValue { return v.list }

// Fields returns the dict fields; nil for non-dict values
func (v TaggedValue) Fields() []Field { return v.fields }

// Len returns the element count of a list or dict, 0 otherwise
func (v TaggedValue) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindDict:
		return len(v.fields)
	default:
		return 0
	}
}

// Lookup finds the named dict field, scanning from the end so that the
// last write wins when duplicate names are present.
func (v TaggedValue) Lookup(name string) (TaggedValue, bool) {
	for i := len(v.fields) - 1; i >= 0; i-- {
		if v.fields[i].Name == name {
			return v.fields[i].Value, true
		}
	}
	return TaggedValue{}, false
}

// WithField returns a copy of a dict value with the binding appended.
// On a non-dict value it starts a fresh dict.
func (v TaggedValue) WithField(name string, val TaggedValue) TaggedValue {
	fields := make([]Field, len(v.fields), len(v.fields)+1)
	copy(fields, v.fields)
	return Dict(append(fields, Field{Name: name, Value: val})...)
}

// AsNumber coerces the value to a number. Strings are parsed; a parse
// failure or an uncoercible variant records an error on errs and yields 0.
func (v TaggedValue) AsNumber(errs *ErrorList) float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			errs.Add(fmt.Errorf("cannot parse %q as number", v.str))
			return 0
		}
		return n
	default:
		errs.Add(fmt.Errorf("cannot convert %s to number", v.kind))
		return 0
	}
}

// AsString coerces the value to a string. Numbers format with minimal
// digits; lists and dicts are uncoercible and record an error.
func (v TaggedValue) AsString(errs *ErrorList) string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	default:
		errs.Add(fmt.Errorf("cannot convert %s to string", v.kind))
		return ""
	}
}

// AsBool coerces the value to a boolean. Numbers are true when nonzero;
// the strings "true" and "false" convert; anything else records an error.
func (v TaggedValue) AsBool(errs *ErrorList) bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindString:
		switch strings.ToLower(v.str) {
		case "true":
			return true
		case "false":
			return false
		}
		errs.Add(fmt.Errorf("cannot parse %q as bool", v.str))
		return false
	default:
		errs.Add(fmt.Errorf("cannot convert %s to bool", v.kind))
		return false
	}
}

// IsNumeric reports whether the value is a number or a string that
// parses as one. Used to choose numeric vs lexicographic comparison.
func (v TaggedValue) IsNumeric() bool {
	switch v.kind {
	case KindNumber:
		return true
	case KindString:
		_, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return err == nil
	default:
		return false
	}
}

// FormatNumber renders a float the way expansion output expects:
// integral values without a decimal point, others with minimal digits.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// String renders the value for diagnostics
func (v TaggedValue) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return strconv.Quote(v.str)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<none>"
	}
}
