package template

import (
	"github.com/c360/graphcfg/wirefield"
)

// Rule operation identifiers. A rule either carries one of the control
// ops below, an expression operator understood by the evaluator, or an
// empty op meaning the rule is a bare sub-expression held in Args[0].
const (
	// OpFor iterates its subtree once per element of a range expression
	OpFor = "for"
	// OpIf expands its subtree once or not at all
	OpIf = "if"
	// OpParam declares a named argument with a default expression
	OpParam = "param"
	// OpLiteral yields its stored text as-is
	OpLiteral = "literal"
	// OpVar names a loop variable; it is an operand, never evaluated
	OpVar = "var"
	// OpDot looks up a field of a dict operand
	OpDot = "."
)

// Expression operators understood by the evaluator
const (
	OpAdd       = "+"
	OpSubtract  = "-"
	OpMultiply  = "*"
	OpDivide    = "/"
	OpGreater   = ">"
	OpLess      = "<"
	OpGreaterEq = ">="
	OpLessEq    = "<="
	OpEqual     = "=="
	OpNotEqual  = "!="
	OpAnd       = "&&"
	OpOr        = "||"
	OpNot       = "!"
	OpMin       = "min"
	OpMax       = "max"
	OpConcat    = "concat"
	OpLowercase = "lowercase"
	OpUppercase = "uppercase"
	OpDict      = "dict"
	OpList      = "list"
	OpSize      = "size"
)

// Rule is one entry of a template's flat, lexically-path-ordered rule
// list. A rule describes how to compute or replace the value at a
// field path, possibly conditionally or iteratively. Nested rules
// (rules whose path extends this rule's path) appear later in the
// flat list, before any sibling's nested rules.
type Rule struct {
	// Path addresses the target field from the message root. Empty
	// means the rule operates on the whole current message.
	Path string `json:"path,omitempty"`

	// Op is the rule's operation or expression operator
	Op string `json:"op,omitempty"`

	// Value holds literal text or a parameter/variable name,
	// depending on Op
	Value string `json:"value,omitempty"`

	// Args are nested sub-rules: expression operands, or a control
	// rule's operands such as the loop variable and range of a for
	Args []Rule `json:"args,omitempty"`

	// FieldValue carries the replacement contents directly for fields
	// that are not repeated in the underlying schema
	FieldValue []byte `json:"field_value,omitempty"`

	// FieldType is the serialization type of the target field
	FieldType wirefield.FieldType `json:"field_type,omitempty"`

	// KeyTypes are the serialization types for any map-key steps in
	// Path, in order of appearance
	KeyTypes []wirefield.FieldType `json:"key_types,omitempty"`
}

// Template is a graph description plus the ordered expansion rules
// targeting field paths within it.
type Template struct {
	// Base is the serialized parameterized graph description the
	// rules are overlaid onto
	Base []byte `json:"base"`

	// Rules is the flat rule list, pre-sorted so each rule's subtree
	// is contiguous and immediately follows it
	Rules []Rule `json:"rules,omitempty"`
}
