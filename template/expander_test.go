package template

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/testutil"
	"github.com/c360/graphcfg/value"
	"github.com/c360/graphcfg/wirefield"
)

func hasError(errs []error, target error) bool {
	for _, err := range errs {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestExpandNoRulesReturnsBaseUnchanged(t *testing.T) {
	base := testutil.Message(
		testutil.StringField(1, "graph"),
		testutil.VarintField(5, 30),
	)

	out, errs := Expand(value.Dict(), Template{Base: base})
	require.Empty(t, errs)
	assert.Equal(t, base, out)
}

func TestExpandForProducesOneIncrementPerElement(t *testing.T) {
	base := testutil.Message(
		testutil.StringField(1, "node"),
		testutil.VarintField(5, 0),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/5[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeInt32,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("1"), lit("2"), lit("3")),
				},
			},
			{
				Path:      "/5[0]",
				Op:        OpMultiply,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{ref("x"), lit("2")},
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)

	want := testutil.Message(
		testutil.StringField(1, "node"),
		testutil.VarintField(5, 2),
		testutil.VarintField(5, 4),
		testutil.VarintField(5, 6),
	)
	assert.Equal(t, want, out)
}

func TestExpandForOverEmptyRangeRemovesField(t *testing.T) {
	base := testutil.Message(
		testutil.StringField(1, "node"),
		testutil.VarintField(5, 0),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/5[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{ref("x"), expr(OpList)},
			},
			{
				Path:      "/5[0]",
				Op:        OpMultiply,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{ref("x"), lit("2")},
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	assert.Equal(t, testutil.Message(testutil.StringField(1, "node")), out)
}

func TestExpandIfTrueBehavesAsUnwrapped(t *testing.T) {
	base := testutil.Message(testutil.VarintField(7, 0))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/7[0]",
				Op:        OpIf,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{lit("true")},
			},
			{
				Path:      "/7[0]",
				Op:        OpLiteral,
				Value:     "42",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	assert.Equal(t, testutil.Message(testutil.VarintField(7, 42)), out)
}

func TestExpandIfFalseRemovesSubtree(t *testing.T) {
	base := testutil.Message(
		testutil.StringField(1, "keep"),
		testutil.VarintField(7, 0),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/7[0]",
				Op:        OpIf,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{lit("false")},
			},
			{
				Path:      "/7[0]",
				Op:        OpLiteral,
				Value:     "42",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	assert.Equal(t, testutil.Message(testutil.StringField(1, "keep")), out)
}

func TestExpandIfFalseAtTopLevelIsCardinalityError(t *testing.T) {
	base := testutil.Message(testutil.StringField(1, "graph"))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{Op: OpIf, Args: []Rule{lit("false")}},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	assert.Nil(t, out)
	require.NotEmpty(t, errs)
	assert.True(t, hasError(errs, errors.ErrMultipleValues))
}

func TestExpandParamDefaultUsedWhenUnbound(t *testing.T) {
	base := testutil.Message(testutil.VarintField(9, 0))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/9[0]",
				Op:        OpParam,
				Value:     "rate",
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{lit("5")},
			},
			{
				Path:      "/9[0]",
				Op:        OpVar,
				Value:     "rate",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	assert.Equal(t, testutil.Message(testutil.VarintField(9, 5)), out)
}

func TestExpandParamCallerBindingWins(t *testing.T) {
	base := testutil.Message(testutil.VarintField(9, 0))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/9[0]",
				Op:        OpParam,
				Value:     "rate",
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{lit("5")},
			},
			{
				Path:      "/9[0]",
				Op:        OpVar,
				Value:     "rate",
				FieldType: wirefield.TypeInt32,
			},
		},
	}
	args := value.Dict(value.Field{Name: "rate", Value: value.Number(7)})

	out, errs := Expand(args, tpl)
	require.Empty(t, errs)
	assert.Equal(t, testutil.Message(testutil.VarintField(9, 7)), out)
}

func TestExpandParamWrongArityRecordsError(t *testing.T) {
	base := testutil.Message(testutil.VarintField(9, 0))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/9[0]",
				Op:        OpParam,
				Value:     "rate",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	assert.Nil(t, out)
	assert.True(t, hasError(errs, errors.ErrBadArity))
}

func TestExpandNestedForShadowingRestoresOuterBinding(t *testing.T) {
	sub := testutil.Message(
		testutil.VarintField(1, 0),
		testutil.VarintField(4, 0),
	)
	base := testutil.Message(testutil.BytesField(2, sub))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/2[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeMessage,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("1"), lit("2")),
				},
			},
			{
				Path:      "/2[0]/1[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeInt32,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("100")),
				},
			},
			{
				Path:      "/2[0]/1[0]",
				Op:        OpVar,
				Value:     "x",
				FieldType: wirefield.TypeInt32,
			},
			{
				Path:      "/2[0]/4[0]",
				Op:        OpMultiply,
				FieldType: wirefield.TypeInt32,
				Args:      []Rule{ref("x"), lit("10")},
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)

	// The inner loop rebinds x to 100; the sibling rule after it must
	// see the outer iteration's binding again.
	want := testutil.Message(
		testutil.MessageField(2,
			testutil.VarintField(1, 100),
			testutil.VarintField(4, 10),
		),
		testutil.MessageField(2,
			testutil.VarintField(1, 100),
			testutil.VarintField(4, 20),
		),
	)
	assert.Equal(t, want, out)
}

func TestExpandNonRepeatedFieldRejectsMultipleValues(t *testing.T) {
	base := testutil.Message(testutil.StringField(1, "n"))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:       "/6",
				Op:         OpFor,
				FieldValue: testutil.Varint(0),
				FieldType:  wirefield.TypeInt32,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("1"), lit("2")),
				},
			},
			{
				Path:      "/6",
				Op:        OpVar,
				Value:     "x",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	assert.Nil(t, out)
	require.NotEmpty(t, errs)
	assert.True(t, hasError(errs, errors.ErrMultipleValues))
}

func TestExpandAbsentNonRepeatedFieldAppends(t *testing.T) {
	base := testutil.Message(testutil.StringField(1, "n"))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:       "/6",
				Op:         OpLiteral,
				Value:      "11",
				FieldValue: testutil.Varint(0),
				FieldType:  wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	want := testutil.Message(
		testutil.StringField(1, "n"),
		testutil.VarintField(6, 11),
	)
	assert.Equal(t, want, out)
}

func TestExpandSiblingEditsApplyInReverseOrder(t *testing.T) {
	base := testutil.Message(
		testutil.VarintField(5, 1),
		testutil.VarintField(5, 2),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				// Grows occurrence 0 into two values, shifting the
				// index of occurrence 1.
				Path:      "/5[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeInt32,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("7"), lit("8")),
				},
			},
			{
				Path:      "/5[0]",
				Op:        OpVar,
				Value:     "x",
				FieldType: wirefield.TypeInt32,
			},
			{
				Path:      "/5[1]",
				Op:        OpLiteral,
				Value:     "9",
				FieldType: wirefield.TypeInt32,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	want := testutil.Message(
		testutil.VarintField(5, 7),
		testutil.VarintField(5, 8),
		testutil.VarintField(5, 9),
	)
	assert.Equal(t, want, out)
}

func TestExpandAccumulatesAllErrorsInOnePass(t *testing.T) {
	base := testutil.Message(testutil.VarintField(5, 0))
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{Path: "/bad[", Op: OpLiteral, Value: "1", FieldType: wirefield.TypeInt32},
			{Path: "/5[0]", Op: "frobnicate", FieldType: wirefield.TypeInt32},
			{Path: "/7", Op: OpVar, Value: "missing", FieldValue: testutil.Varint(0), FieldType: wirefield.TypeInt32},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	assert.Nil(t, out)
	assert.True(t, hasError(errs, errors.ErrBadPath))
	assert.True(t, hasError(errs, errors.ErrUnknownOperator))
	assert.True(t, hasError(errs, errors.ErrUnboundVariable))
}

func TestExpandRejectsOutOfOrderNestedRule(t *testing.T) {
	base := testutil.Message(
		testutil.VarintField(5, 0),
		testutil.VarintField(6, 0),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{Path: "/5[0]", Op: OpLiteral, Value: "1", FieldType: wirefield.TypeInt32},
			{Path: "/6[0]", Op: OpLiteral, Value: "2", FieldType: wirefield.TypeInt32},
			{Path: "/5[0]/1[0]", Op: OpLiteral, Value: "3", FieldType: wirefield.TypeInt32},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	assert.Nil(t, out)
	assert.True(t, hasError(errs, errors.ErrRuleOrder))
}

func TestExpandReplacesNestedFieldRewritingLengthPrefix(t *testing.T) {
	sub := testutil.Message(testutil.StringField(2, "old"))
	base := testutil.Message(
		testutil.BytesField(3, sub),
		testutil.StringField(8, "after"),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/3[0]/2[0]",
				Op:        OpLiteral,
				Value:     "replacement",
				FieldType: wirefield.TypeString,
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	want := testutil.Message(
		testutil.MessageField(3, testutil.StringField(2, "replacement")),
		testutil.StringField(8, "after"),
	)
	assert.Equal(t, want, out)
}

func TestExpandNamedWithoutMetricsConfigured(t *testing.T) {
	base := testutil.Message(testutil.StringField(1, "graph"))
	ex := &Expander{}

	out, errs := ex.ExpandNamed("demo", value.Dict(), Template{Base: base})
	require.Empty(t, errs)
	assert.Equal(t, base, out)
}

func TestExpandComputedStreamNames(t *testing.T) {
	base := testutil.Message(
		testutil.StringField(1, "node"),
		testutil.StringField(4, ""),
	)
	tpl := Template{
		Base: base,
		Rules: []Rule{
			{
				Path:      "/4[0]",
				Op:        OpFor,
				FieldType: wirefield.TypeString,
				Args: []Rule{
					ref("x"),
					expr(OpList, lit("0"), lit("1")),
				},
			},
			{
				Path:      "/4[0]",
				Op:        OpConcat,
				FieldType: wirefield.TypeString,
				Args:      []Rule{lit("input_"), ref("x")},
			},
		},
	}

	out, errs := Expand(value.Dict(), tpl)
	require.Empty(t, errs)
	want := testutil.Message(
		testutil.StringField(1, "node"),
		testutil.StringField(4, "input_0"),
		testutil.StringField(4, "input_1"),
	)
	assert.Equal(t, want, out)
}
