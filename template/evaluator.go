package template

import (
	"fmt"
	"strings"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/value"
)

// OperatorFunc implements one expression operator. Operand rules are
// in expr.Args; implementations record problems on the evaluator's
// error list and return a safe default rather than failing.
type OperatorFunc func(e *Evaluator, expr *Rule) value.TaggedValue

// Evaluator evaluates rule expressions against the argument
// environment. It never aborts: every malformed expression or failed
// lookup is recorded and evaluation continues with a default value so
// one pass surfaces all remaining problems.
type Evaluator struct {
	env       *value.Environment
	errs      *value.ErrorList
	operators map[string]OperatorFunc
}

// NewEvaluator creates an evaluator with all supported operators
// registered, sharing the expansion pass's environment and error list.
func NewEvaluator(env *value.Environment, errs *value.ErrorList) *Evaluator {
	e := &Evaluator{
		env:       env,
		errs:      errs,
		operators: make(map[string]OperatorFunc),
	}

	// Arithmetic operators
	e.operators[OpAdd] = operatorAdd
	e.operators[OpSubtract] = numericOperator(func(a, b float64) float64 { return a - b })
	e.operators[OpMultiply] = numericOperator(func(a, b float64) float64 { return a * b })
	e.operators[OpDivide] = numericOperator(func(a, b float64) float64 { return a / b })

	// Relational operators
	e.operators[OpGreater] = comparisonOperator(func(c int) bool { return c > 0 })
	e.operators[OpLess] = comparisonOperator(func(c int) bool { return c < 0 })
	e.operators[OpGreaterEq] = comparisonOperator(func(c int) bool { return c >= 0 })
	e.operators[OpLessEq] = comparisonOperator(func(c int) bool { return c <= 0 })
	e.operators[OpEqual] = comparisonOperator(func(c int) bool { return c == 0 })
	e.operators[OpNotEqual] = comparisonOperator(func(c int) bool { return c != 0 })

	// Boolean operators
	e.operators[OpAnd] = operatorAnd
	e.operators[OpOr] = operatorOr
	e.operators[OpNot] = operatorNot

	// Numeric folds
	e.operators[OpMin] = foldOperator(func(a, b float64) float64 {
		if b < a {
			return b
		}
		return a
	})
	e.operators[OpMax] = foldOperator(func(a, b float64) float64 {
		if b > a {
			return b
		}
		return a
	})

	// String operators
	e.operators[OpConcat] = operatorConcat
	e.operators[OpLowercase] = stringOperator(strings.ToLower)
	e.operators[OpUppercase] = stringOperator(strings.ToUpper)

	// Collection constructors and accessors
	e.operators[OpDict] = operatorDict
	e.operators[OpList] = operatorList
	e.operators[OpSize] = operatorSize
	e.operators[OpDot] = operatorDot

	return e
}

// Eval evaluates an expression rule to a tagged value
func (e *Evaluator) Eval(expr *Rule) value.TaggedValue {
	switch expr.Op {
	case OpLiteral:
		return value.String(expr.Value)
	case OpVar, OpParam:
		return e.lookup(expr.Value)
	case "":
		// An empty op wraps a sub-expression in Args[0]; with no
		// operands it is a bare name reference.
		if len(expr.Args) == 1 {
			return e.Eval(&expr.Args[0])
		}
		return e.lookup(expr.Value)
	}

	op, ok := e.operators[expr.Op]
	if !ok {
		e.errs.Add(errors.Wrap(
			fmt.Errorf("%w: %q", errors.ErrUnknownOperator, expr.Op),
			"Evaluator", "Eval", "operator dispatch"))
		return value.TaggedValue{}
	}
	return op(e, expr)
}

// lookup resolves a parameter or loop-variable name in the environment
func (e *Evaluator) lookup(name string) value.TaggedValue {
	v, ok := e.env.Lookup(name)
	if !ok {
		e.errs.Add(errors.Wrap(
			fmt.Errorf("%w: %q", errors.ErrUnboundVariable, name),
			"Evaluator", "Eval", "parameter lookup"))
		return value.Number(0)
	}
	return v
}

// evalArgs evaluates all operands left to right
func (e *Evaluator) evalArgs(expr *Rule) []value.TaggedValue {
	out := make([]value.TaggedValue, len(expr.Args))
	for i := range expr.Args {
		out[i] = e.Eval(&expr.Args[i])
	}
	return out
}

// badArity records an arity error for an operator
func (e *Evaluator) badArity(expr *Rule, expected string) {
	e.errs.Add(errors.Wrap(
		fmt.Errorf("%w: operator %q expects %s, got %d", errors.ErrBadArity, expr.Op, expected, len(expr.Args)),
		"Evaluator", "Eval", "arity check"))
}

// operatorAdd adds numerically, falling back to string concatenation
// when either operand is non-numeric.
func operatorAdd(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) != 2 {
		e.badArity(expr, "2 operands")
		return value.TaggedValue{}
	}
	args := e.evalArgs(expr)
	if args[0].IsNumeric() && args[1].IsNumeric() {
		return value.Number(args[0].AsNumber(e.errs) + args[1].AsNumber(e.errs))
	}
	return value.String(args[0].AsString(e.errs) + args[1].AsString(e.errs))
}

func numericOperator(apply func(a, b float64) float64) OperatorFunc {
	return func(e *Evaluator, expr *Rule) value.TaggedValue {
		if len(expr.Args) != 2 {
			e.badArity(expr, "2 operands")
			return value.TaggedValue{}
		}
		args := e.evalArgs(expr)
		return value.Number(apply(args[0].AsNumber(e.errs), args[1].AsNumber(e.errs)))
	}
}

// comparisonOperator compares numerically when both operands parse as
// numbers, lexicographically as strings otherwise.
func comparisonOperator(accept func(cmp int) bool) OperatorFunc {
	return func(e *Evaluator, expr *Rule) value.TaggedValue {
		if len(expr.Args) != 2 {
			e.badArity(expr, "2 operands")
			return value.TaggedValue{}
		}
		args := e.evalArgs(expr)
		return value.Bool(accept(compareValues(e, args[0], args[1])))
	}
}

func compareValues(e *Evaluator, a, b value.TaggedValue) int {
	if a.IsNumeric() && b.IsNumeric() {
		an, bn := a.AsNumber(e.errs), b.AsNumber(e.errs)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.AsString(e.errs), b.AsString(e.errs))
}

func operatorAnd(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) < 2 {
		e.badArity(expr, "at least 2 operands")
		return value.Bool(false)
	}
	for _, arg := range e.evalArgs(expr) {
		if !arg.AsBool(e.errs) {
			return value.Bool(false)
		}
	}
	return value.Bool(true)
}

func operatorOr(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) < 2 {
		e.badArity(expr, "at least 2 operands")
		return value.Bool(false)
	}
	for _, arg := range e.evalArgs(expr) {
		if arg.AsBool(e.errs) {
			return value.Bool(true)
		}
	}
	return value.Bool(false)
}

func operatorNot(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) != 1 {
		e.badArity(expr, "1 operand")
		return value.Bool(false)
	}
	return value.Bool(!e.Eval(&expr.Args[0]).AsBool(e.errs))
}

func foldOperator(apply func(a, b float64) float64) OperatorFunc {
	return func(e *Evaluator, expr *Rule) value.TaggedValue {
		if len(expr.Args) == 0 {
			e.badArity(expr, "at least 1 operand")
			return value.TaggedValue{}
		}
		args := e.evalArgs(expr)
		acc := args[0].AsNumber(e.errs)
		for _, arg := range args[1:] {
			acc = apply(acc, arg.AsNumber(e.errs))
		}
		return value.Number(acc)
	}
}

func operatorConcat(e *Evaluator, expr *Rule) value.TaggedValue {
	var b strings.Builder
	for _, arg := range e.evalArgs(expr) {
		b.WriteString(arg.AsString(e.errs))
	}
	return value.String(b.String())
}

func stringOperator(apply func(string) string) OperatorFunc {
	return func(e *Evaluator, expr *Rule) value.TaggedValue {
		if len(expr.Args) != 1 {
			e.badArity(expr, "1 operand")
			return value.String("")
		}
		return value.String(apply(e.Eval(&expr.Args[0]).AsString(e.errs)))
	}
}

// operatorDict pairs an even-length argument list into named fields
func operatorDict(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args)%2 != 0 {
		e.badArity(expr, "an even number of operands")
		return value.Dict()
	}
	args := e.evalArgs(expr)
	fields := make([]value.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		fields = append(fields, value.Field{
			Name:  args[i].AsString(e.errs),
			Value: args[i+1],
		})
	}
	return value.Dict(fields...)
}

func operatorList(e *Evaluator, expr *Rule) value.TaggedValue {
	return value.List(e.evalArgs(expr)...)
}

func operatorSize(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) != 1 {
		e.badArity(expr, "1 operand")
		return value.Number(0)
	}
	arg := e.Eval(&expr.Args[0])
	if arg.Kind() != value.KindList && arg.Kind() != value.KindDict {
		e.errs.Add(errors.Wrap(
			fmt.Errorf("size of %s value", arg.Kind()),
			"Evaluator", "Eval", "size operand"))
		return value.Number(0)
	}
	return value.Number(float64(arg.Len()))
}

// operatorDot performs dict-field lookup on the evaluated left operand
func operatorDot(e *Evaluator, expr *Rule) value.TaggedValue {
	if len(expr.Args) != 2 {
		e.badArity(expr, "2 operands")
		return value.TaggedValue{}
	}
	left := e.Eval(&expr.Args[0])
	key := keyName(e, &expr.Args[1])
	got, ok := left.Lookup(key)
	if !ok {
		e.errs.Add(errors.Wrap(
			fmt.Errorf("%w: %q", errors.ErrKeyNotFound, key),
			"Evaluator", "Eval", "dict lookup"))
		return value.TaggedValue{}
	}
	return got
}

// keyName reads a field-name operand: literal and name operands yield
// their text directly, anything else is evaluated and coerced.
func keyName(e *Evaluator, operand *Rule) string {
	if (operand.Op == OpLiteral || operand.Op == OpVar) && len(operand.Args) == 0 {
		return operand.Value
	}
	return e.Eval(operand).AsString(e.errs)
}
