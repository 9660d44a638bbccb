package template

import (
	"fmt"
	"time"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/metric"
	"github.com/c360/graphcfg/value"
	"github.com/c360/graphcfg/wirefield"
)

// Expander expands templates against serialized message bytes.
// Metrics is optional; when set, each expansion records its outcome
// and duration.
type Expander struct {
	Metrics *metric.Metrics
}

// Expand runs one expansion pass of tpl under the caller-supplied
// argument dict. On success it returns the expanded message bytes; on
// failure it returns every problem found in this pass, never just the
// first one, and no partial output.
func (ex *Expander) Expand(args value.TaggedValue, tpl Template) ([]byte, []error) {
	return ex.ExpandNamed("", args, tpl)
}

// ExpandNamed is Expand with a template name used for metric labels
func (ex *Expander) ExpandNamed(name string, args value.TaggedValue, tpl Template) ([]byte, []error) {
	start := time.Now()
	out, errs := expand(args, tpl)
	if ex.Metrics != nil {
		if name == "" {
			name = "unnamed"
		}
		ex.Metrics.RecordExpansion(name, len(errs), time.Since(start))
	}
	return out, errs
}

// Expand expands a template without metrics
func Expand(args value.TaggedValue, tpl Template) ([]byte, []error) {
	return expand(args, tpl)
}

// expansion carries the state of one expansion pass: the rule list
// with pre-parsed paths, the mutable environment, and the shared
// error list that accumulates every problem found.
type expansion struct {
	rules []Rule
	paths []wirefield.Path
	valid []bool
	env   *value.Environment
	errs  *value.ErrorList
	eval  *Evaluator
}

// edit is one pending field replacement: count occurrences at the
// relative path give way to the listed values.
type edit struct {
	rel    wirefield.Path
	count  int
	t      wirefield.FieldType
	values [][]byte
}

func expand(args value.TaggedValue, tpl Template) ([]byte, []error) {
	errs := &value.ErrorList{}
	env := value.NewEnvironment(args)
	x := &expansion{
		rules: tpl.Rules,
		paths: make([]wirefield.Path, len(tpl.Rules)),
		valid: make([]bool, len(tpl.Rules)),
		env:   env,
		errs:  errs,
		eval:  NewEvaluator(env, errs),
	}

	for i := range tpl.Rules {
		p, err := wirefield.ParsePath(tpl.Rules[i].Path, tpl.Rules[i].KeyTypes)
		if err != nil {
			errs.Add(errors.WrapSyntax(
				fmt.Errorf("%w: rule %d: %w", errors.ErrBadPath, i, err),
				"Expander", "Expand", "path parsing"))
			continue
		}
		x.paths[i] = p
		x.valid[i] = true
	}
	x.validateRuleOrder()

	results := x.expandNested(-1, tpl.Base)
	if len(results) != 1 {
		errs.Add(errors.WrapCardinality(
			fmt.Errorf("%w: expansion produced %d top-level messages, want 1",
				errors.ErrMultipleValues, len(results)),
			"Expander", "Expand", "top-level result"))
	}

	if !errs.Empty() {
		return nil, errs.Errors()
	}
	return results[0], nil
}

// validateRuleOrder checks that every rule's subtree is contiguous in
// the flat list: once the scan past rule i leaves the run of paths
// prefixed by i's path, no later rule may re-enter it. Out-of-order
// rules would be silently consumed by the wrong parent, so they are
// rejected up front.
func (x *expansion) validateRuleOrder() {
	for i := range x.rules {
		if !x.valid[i] {
			continue
		}
		j := i + 1
		for j < len(x.rules) && x.paths[j].HasPrefix(x.paths[i]) {
			j++
		}
		for ; j < len(x.rules); j++ {
			if x.valid[j] && x.paths[j].HasPrefix(x.paths[i]) {
				x.errs.Add(errors.WrapSyntax(
					fmt.Errorf("%w: rule %d (%q) is nested under rule %d (%q) but does not follow its subtree",
						errors.ErrRuleOrder, j, x.rules[j].Path, i, x.rules[i].Path),
					"Expander", "Expand", "rule order validation"))
			}
		}
	}
}

// expandNested expands every rule directly nested under the rule at
// baseIndex (the whole list for baseIndex -1) against msg, and returns
// the result increments: usually one rewritten message, but a
// whole-message for or if child may contribute zero or several.
//
// Direct children are found in one forward scan: a rule belongs to
// this level while its path extends the base path, and it is a direct
// child unless the previously accepted child's path already covers it,
// in which case that child's own recursion consumes it.
func (x *expansion) expandNested(baseIndex int, msg []byte) [][]byte {
	var basePath wirefield.Path
	start := 0
	if baseIndex >= 0 {
		basePath = x.paths[baseIndex]
		start = baseIndex + 1
	}

	var edits []edit
	var last wirefield.Path
	accepted := false

	for j := start; j < len(x.rules); j++ {
		if !x.valid[j] {
			continue
		}
		p := x.paths[j]
		if !p.HasPrefix(basePath) {
			break
		}
		if accepted && p.HasPrefix(last) {
			continue
		}
		last, accepted = p, true

		rel := p.TrimPrefix(basePath)
		if len(rel) == 0 {
			// A child at the base path itself rewrites the whole
			// message; everything after it at this level is part of
			// its subtree, so its increments are this level's result.
			return x.expandRule(j, msg, nil)
		}

		values, ok := x.expandField(j, msg, rel)
		if !ok {
			continue
		}
		count := 1
		if x.rules[j].FieldValue != nil {
			n, err := wirefield.FieldCount(msg, rel)
			if err != nil {
				x.errs.Add(errors.WrapSemantic(
					fmt.Errorf("%w: rule %d (%q): %w", errors.ErrFieldNotFound, j, x.rules[j].Path, err),
					"Expander", "Expand", "field occurrence count"))
				continue
			}
			if n > 1 {
				n = 1
			}
			count = n
		}
		edits = append(edits, edit{rel: rel, count: count, t: x.rules[j].FieldType, values: values})
	}

	// Replacements shift the byte offsets and occurrence indices of
	// everything after them, so commit the later edits first.
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		out, err := wirefield.ReplaceFieldRange(msg, e.rel, e.count, e.t, e.values)
		if err != nil {
			x.errs.Add(errors.WrapSemantic(
				fmt.Errorf("replace at %q: %w", e.rel.String(), err),
				"Expander", "Expand", "field replacement"))
			continue
		}
		msg = out
	}
	return [][]byte{msg}
}

// expandField expands one direct child rule addressing a field and
// enforces the single-value limit for non-repeated fields.
func (x *expansion) expandField(j int, msg []byte, rel wirefield.Path) ([][]byte, bool) {
	values := x.expandRule(j, msg, rel)
	if x.rules[j].FieldValue != nil && len(values) > 1 {
		x.errs.Add(errors.WrapCardinality(
			fmt.Errorf("%w: rule %d produced %d values for non-repeated field %q",
				errors.ErrMultipleValues, j, len(values), x.rules[j].Path),
			"Expander", "Expand", "non-repeated field replacement"))
		return nil, false
	}
	return values, true
}

// expandRule dispatches one rule by op and returns its result
// increments.
func (x *expansion) expandRule(j int, msg []byte, rel wirefield.Path) [][]byte {
	switch x.rules[j].Op {
	case OpFor:
		return x.expandFor(j, x.baseValue(j, msg, rel))
	case OpIf:
		return x.expandIf(j, x.baseValue(j, msg, rel))
	case OpParam:
		return x.expandParam(j, x.baseValue(j, msg, rel))
	default:
		return x.expandExpr(j)
	}
}

// baseValue resolves the bytes a control rule's subtree expands
// against: the current message for path-less rules, the literal
// replacement for non-repeated fields, the addressed field contents
// otherwise.
func (x *expansion) baseValue(j int, msg []byte, rel wirefield.Path) []byte {
	rule := &x.rules[j]
	switch {
	case len(rel) == 0:
		return msg
	case rule.FieldValue != nil:
		return rule.FieldValue
	default:
		values, err := wirefield.GetFieldRange(msg, rel, 1, rule.FieldType)
		if err != nil {
			x.errs.Add(errors.WrapSemantic(
				fmt.Errorf("%w: rule %d (%q): %w", errors.ErrFieldNotFound, j, rule.Path, err),
				"Expander", "Expand", "base field read"))
			return nil
		}
		return values[0]
	}
}

// expandFor iterates its subtree once per element of the range
// expression, with the loop variable scoped to each iteration.
func (x *expansion) expandFor(j int, base []byte) [][]byte {
	rule := &x.rules[j]
	if len(rule.Args) != 2 {
		x.errs.Add(errors.WrapCardinality(
			fmt.Errorf("%w: for rule %d has %d operands, want loop variable and range",
				errors.ErrBadArity, j, len(rule.Args)),
			"Expander", "Expand", "for rule operands"))
		return nil
	}
	name := rule.Args[0].Value
	rng := x.eval.Eval(&rule.Args[1])
	if rng.Kind() != value.KindList {
		x.errs.Add(errors.WrapSemantic(
			fmt.Errorf("for rule %d range evaluated to %s, want list", j, rng.Kind()),
			"Expander", "Expand", "for rule range"))
		return nil
	}

	var results [][]byte
	for _, item := range rng.Elems() {
		x.env.Scoped(name, item, func() {
			results = append(results, x.expandNested(j, base)...)
		})
	}
	return results
}

// expandIf expands its subtree once when the condition holds, not at
// all otherwise. A false condition contributes nothing and is not an
// error.
func (x *expansion) expandIf(j int, base []byte) [][]byte {
	rule := &x.rules[j]
	if len(rule.Args) != 1 {
		x.errs.Add(errors.WrapCardinality(
			fmt.Errorf("%w: if rule %d has %d operands, want 1 condition",
				errors.ErrBadArity, j, len(rule.Args)),
			"Expander", "Expand", "if rule operands"))
		return nil
	}
	if !x.eval.Eval(&rule.Args[0]).AsBool(x.errs) {
		return nil
	}
	return x.expandNested(j, base)
}

// expandParam binds the declared default when the name has no caller
// binding, then expands its subtree. The binding is deliberately
// persistent: later rules in the same pass see it.
func (x *expansion) expandParam(j int, base []byte) [][]byte {
	rule := &x.rules[j]
	if len(rule.Args) != 1 {
		x.errs.Add(errors.WrapCardinality(
			fmt.Errorf("%w: param rule %d has %d operands, want 1 default expression",
				errors.ErrBadArity, j, len(rule.Args)),
			"Expander", "Expand", "param rule operands"))
		return x.expandNested(j, base)
	}
	if _, bound := x.env.Lookup(rule.Value); !bound {
		x.env.Bind(rule.Value, x.eval.Eval(&rule.Args[0]))
	}
	return x.expandNested(j, base)
}

// expandExpr evaluates the rule as an expression, serializes the
// single result to the field's declared wire type, and recurses into
// it for any deeper nested rules.
func (x *expansion) expandExpr(j int) [][]byte {
	rule := &x.rules[j]
	expr := rule
	if rule.Op == "" && len(rule.Args) == 1 {
		expr = &rule.Args[0]
	}
	v := x.eval.Eval(expr)

	content, err := x.serialize(v, rule.FieldType)
	if err != nil {
		x.errs.Add(errors.WrapSemantic(
			fmt.Errorf("rule %d (%q): %w", j, rule.Path, err),
			"Expander", "Expand", "result serialization"))
		return nil
	}
	return x.expandNested(j, content)
}

// serialize converts an evaluated value to serialized field contents
func (x *expansion) serialize(v value.TaggedValue, t wirefield.FieldType) ([]byte, error) {
	if v.Kind() == value.KindNumber {
		return wirefield.SerializeNumber(v.Num(), t)
	}
	return wirefield.SerializeText(v.AsString(x.errs), t)
}
