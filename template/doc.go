// Package template implements the graph template expansion engine: a
// rule interpreter that turns a parameterized graph description plus a
// named-argument dict into a concrete, fully-instantiated description.
//
// A Template is the serialized base message and a flat list of Rules,
// sorted so each rule's subtree immediately follows it. Rules address
// fields of the base message by serialized field path and either
// compute a replacement value from an expression, or control how their
// subtree expands:
//
//   - for iterates its subtree once per element of a range expression,
//     binding a loop variable with dynamic scoping
//   - if expands its subtree once or not at all
//   - param binds a named argument's default when the caller did not
//     supply one
//
// Expansion operates directly on the serialized bytes: only the
// addressed fields are decoded and re-encoded, everything else passes
// through verbatim, so templates work against arbitrary message
// schemas without generated code.
//
// Expansion never stops at the first problem. Every malformed path,
// unbound parameter, arity mistake or cardinality violation is
// accumulated, and the pass reports them all together; output is
// returned only when the error list is empty.
//
//	tpl := template.Template{Base: graphBytes, Rules: rules}
//	out, errs := template.Expand(args, tpl)
//	if len(errs) > 0 {
//	    // every problem from the pass, not just the first
//	}
package template
