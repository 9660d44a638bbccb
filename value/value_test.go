package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindDiscrimination(t *testing.T) {
	assert.Equal(t, KindNumber, Number(1.5).Kind())
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindList, List(Number(1)).Kind())
	assert.Equal(t, KindDict, Dict(Field{Name: "a", Value: Number(1)}).Kind())
	assert.True(t, TaggedValue{}.IsEmpty())
}

func TestDictLookupLastWriteWins(t *testing.T) {
	d := Dict(
		Field{Name: "a", Value: Number(1)},
		Field{Name: "b", Value: Number(2)},
		Field{Name: "a", Value: Number(3)},
	)

	got, ok := d.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Num())

	_, ok = d.Lookup("missing")
	assert.False(t, ok)
}

func TestAsNumberCoercion(t *testing.T) {
	var errs ErrorList

	assert.Equal(t, 2.5, Number(2.5).AsNumber(&errs))
	assert.Equal(t, 10.0, String("10").AsNumber(&errs))
	assert.Equal(t, -0.5, String(" -0.5 ").AsNumber(&errs))
	assert.True(t, errs.Empty())

	assert.Equal(t, 0.0, String("10a").AsNumber(&errs))
	assert.Equal(t, 0.0, List().AsNumber(&errs))
	assert.Len(t, errs.Errors(), 2)
}

func TestAsStringCoercion(t *testing.T) {
	var errs ErrorList

	assert.Equal(t, "abc", String("abc").AsString(&errs))
	assert.Equal(t, "4", Number(4).AsString(&errs))
	assert.Equal(t, "4.5", Number(4.5).AsString(&errs))
	assert.True(t, errs.Empty())

	assert.Equal(t, "", Dict().AsString(&errs))
	assert.False(t, errs.Empty())
}

func TestAsBoolCoercion(t *testing.T) {
	var errs ErrorList

	assert.True(t, Number(1).AsBool(&errs))
	assert.False(t, Number(0).AsBool(&errs))
	assert.True(t, String("true").AsBool(&errs))
	assert.False(t, String("false").AsBool(&errs))
	assert.True(t, errs.Empty())

	assert.False(t, String("maybe").AsBool(&errs))
	assert.False(t, errs.Empty())
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, Number(3).IsNumeric())
	assert.True(t, String("10").IsNumeric())
	assert.False(t, String("10a").IsNumeric())
	assert.False(t, List().IsNumeric())
}

func TestLen(t *testing.T) {
	assert.Equal(t, 2, List(Number(1), Number(2)).Len())
	assert.Equal(t, 1, Dict(Field{Name: "a", Value: Number(1)}).Len())
	assert.Equal(t, 0, Number(9).Len())
}

func TestEnvironmentScopedRestoresOldBinding(t *testing.T) {
	env := NewEnvironment(Dict(Field{Name: "x", Value: Number(1)}))

	env.Scoped("x", Number(2), func() {
		got, ok := env.Lookup("x")
		require.True(t, ok)
		assert.Equal(t, 2.0, got.Num())

		// Inner shadow of the same name
		env.Scoped("x", Number(3), func() {
			got, _ := env.Lookup("x")
			assert.Equal(t, 3.0, got.Num())
		})

		got, _ = env.Lookup("x")
		assert.Equal(t, 2.0, got.Num())
	})

	got, ok := env.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Num())
}

func TestEnvironmentScopedRemovesFreshBinding(t *testing.T) {
	env := NewEnvironment(Dict())

	env.Scoped("loop", String("a"), func() {
		_, ok := env.Lookup("loop")
		assert.True(t, ok)
	})

	_, ok := env.Lookup("loop")
	assert.False(t, ok)
}

func TestErrorListNilSafe(t *testing.T) {
	var l *ErrorList
	l.Add(assert.AnError)
	assert.True(t, l.Empty())
	assert.Nil(t, l.Errors())
	assert.Nil(t, l.Messages())
}
