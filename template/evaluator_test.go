package template

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/value"
)

func newTestEvaluator(args value.TaggedValue) (*Evaluator, *value.ErrorList) {
	errs := &value.ErrorList{}
	return NewEvaluator(value.NewEnvironment(args), errs), errs
}

func lit(s string) Rule    { return Rule{Op: OpLiteral, Value: s} }
func ref(name string) Rule { return Rule{Op: OpVar, Value: name} }
func expr(op string, args ...Rule) Rule {
	return Rule{Op: op, Args: args}
}

func TestEvalLiteral(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())
	got := e.Eval(&Rule{Op: OpLiteral, Value: "hello"})
	require.True(t, errs.Empty())
	assert.Equal(t, "hello", got.Str())
}

func TestEvalParameterLookup(t *testing.T) {
	args := value.Dict(value.Field{Name: "rate", Value: value.Number(30)})
	e, errs := newTestEvaluator(args)

	got := e.Eval(&Rule{Op: OpParam, Value: "rate"})
	require.True(t, errs.Empty())
	assert.Equal(t, 30.0, got.Num())
}

func TestEvalUnboundParameterRecordsError(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	got := e.Eval(&Rule{Op: OpParam, Value: "missing"})
	assert.Equal(t, 0.0, got.Num())
	require.False(t, errs.Empty())
	assert.True(t, stderrors.Is(errs.Errors()[0], errors.ErrUnboundVariable))
}

func TestEvalArithmetic(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	cases := []struct {
		name string
		rule Rule
		want float64
	}{
		{"add", expr(OpAdd, lit("2"), lit("3")), 5},
		{"subtract", expr(OpSubtract, lit("7"), lit("3")), 4},
		{"multiply", expr(OpMultiply, lit("4"), lit("3")), 12},
		{"divide", expr(OpDivide, lit("8"), lit("2")), 4},
		{"min", expr(OpMin, lit("4"), lit("2"), lit("9")), 2},
		{"max", expr(OpMax, lit("4"), lit("2"), lit("9")), 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := tc.rule
			got := e.Eval(&rule)
			assert.Equal(t, tc.want, got.Num())
		})
	}
	assert.True(t, errs.Empty())
}

func TestEvalAddFallsBackToConcatenation(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	rule := expr(OpAdd, lit("in_"), lit("2"))
	got := e.Eval(&rule)
	require.True(t, errs.Empty())
	assert.Equal(t, "in_2", got.Str())
}

func TestEvalComparisonNumericWhenBothNumeric(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	rule := expr(OpGreater, lit("10"), lit("9"))
	got := e.Eval(&rule)
	require.True(t, errs.Empty())
	assert.Equal(t, 1.0, got.Num(), `"10" > "9" compares numerically`)
}

func TestEvalComparisonLexicographicWhenNotNumeric(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	rule := expr(OpGreater, lit("10a"), lit("9a"))
	got := e.Eval(&rule)
	require.True(t, errs.Empty())
	assert.Equal(t, 0.0, got.Num(), `"10a" > "9a" compares as strings`)
}

func TestEvalBooleanOperators(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	and := expr(OpAnd, lit("true"), lit("true"))
	assert.Equal(t, 1.0, e.Eval(&and).Num())

	or := expr(OpOr, lit("false"), lit("true"))
	assert.Equal(t, 1.0, e.Eval(&or).Num())

	not := expr(OpNot, lit("false"))
	assert.Equal(t, 1.0, e.Eval(&not).Num())

	assert.True(t, errs.Empty())
}

func TestEvalStringOperators(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	concat := expr(OpConcat, lit("a"), lit("b"), lit("c"))
	assert.Equal(t, "abc", e.Eval(&concat).Str())

	lower := expr(OpLowercase, lit("MixEd"))
	assert.Equal(t, "mixed", e.Eval(&lower).Str())

	upper := expr(OpUppercase, lit("MixEd"))
	assert.Equal(t, "MIXED", e.Eval(&upper).Str())

	assert.True(t, errs.Empty())
}

func TestEvalDictConstructorAndLookup(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	dict := expr(OpDict, lit("name"), lit("adder"), lit("inputs"), lit("2"))
	dot := expr(OpDot, dict, lit("name"))
	got := e.Eval(&dot)
	require.True(t, errs.Empty())
	assert.Equal(t, "adder", got.Str())
}

func TestEvalDictOddArityRecordsError(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	dict := expr(OpDict, lit("name"))
	e.Eval(&dict)
	require.False(t, errs.Empty())
	assert.True(t, stderrors.Is(errs.Errors()[0], errors.ErrBadArity))
}

func TestEvalDotMissingKeyRecordsError(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	dot := expr(OpDot, expr(OpDict), lit("absent"))
	e.Eval(&dot)
	require.False(t, errs.Empty())
	assert.True(t, stderrors.Is(errs.Errors()[0], errors.ErrKeyNotFound))
}

func TestEvalListAndSize(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	list := expr(OpList, lit("1"), lit("2"), lit("3"))
	size := expr(OpSize, list)
	got := e.Eval(&size)
	require.True(t, errs.Empty())
	assert.Equal(t, 3.0, got.Num())
}

func TestEvalUnknownOperatorRecordsErrorAndContinues(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	rule := expr("frobnicate", lit("1"))
	got := e.Eval(&rule)
	assert.True(t, got.IsEmpty())
	require.False(t, errs.Empty())
	assert.True(t, stderrors.Is(errs.Errors()[0], errors.ErrUnknownOperator))
}

func TestEvalLoopVariableReference(t *testing.T) {
	args := value.Dict()
	errs := &value.ErrorList{}
	env := value.NewEnvironment(args)
	e := NewEvaluator(env, errs)

	env.Bind("x", value.Number(3))
	rule := expr(OpMultiply, ref("x"), lit("2"))
	got := e.Eval(&rule)
	require.True(t, errs.Empty())
	assert.Equal(t, 6.0, got.Num())
}

func TestEvalWrappedSubExpression(t *testing.T) {
	e, errs := newTestEvaluator(value.Dict())

	wrapped := Rule{Args: []Rule{expr(OpAdd, lit("1"), lit("2"))}}
	got := e.Eval(&wrapped)
	require.True(t, errs.Empty())
	assert.Equal(t, 3.0, got.Num())
}
