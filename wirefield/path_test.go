package wirefield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestParsePathBasic(t *testing.T) {
	path, err := ParsePath("/1[2]/3", nil)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, protowire.Number(1), path[0].Field)
	assert.Equal(t, 2, path[0].Index)
	assert.Equal(t, protowire.Number(3), path[1].Field)
	assert.Equal(t, 0, path[1].Index)
}

func TestParsePathLeadingSlashOptional(t *testing.T) {
	a, err := ParsePath("/4[1]", nil)
	require.NoError(t, err)
	b, err := ParsePath("4[1]", nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParsePathEmpty(t *testing.T) {
	path, err := ParsePath("", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = ParsePath("/", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestParsePathMapKey(t *testing.T) {
	path, err := ParsePath("/7[@1=west]/2", []FieldType{TypeString})
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.True(t, path[0].IsMapKey())
	assert.Equal(t, protowire.Number(7), path[0].Field)
	assert.Equal(t, protowire.Number(1), path[0].KeyField)
	assert.Equal(t, []byte("west"), path[0].Key)
	assert.False(t, path[1].IsMapKey())
}

func TestParsePathNumericMapKeyCanonicalForm(t *testing.T) {
	path, err := ParsePath("/7[@1=300]", []FieldType{TypeInt64})
	require.NoError(t, err)
	// 300 as a varint, not the text "300"
	assert.Equal(t, protowire.AppendVarint(nil, 300), path[0].Key)
}

func TestParsePathErrors(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		keyTypes []FieldType
	}{
		{"zero field number", "/0", nil},
		{"negative index", "/1[-1]", nil},
		{"unterminated index", "/1[2", nil},
		{"empty segment", "/1//2", nil},
		{"missing equals", "/1[@2]", []FieldType{TypeString}},
		{"missing key type", "/1[@2=x]", nil},
		{"not a number", "/abc", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePath(tc.text, tc.keyTypes)
			assert.Error(t, err)
		})
	}
}

func TestPathPrefixOperations(t *testing.T) {
	parent, err := ParsePath("/1[0]", nil)
	require.NoError(t, err)
	child, err := ParsePath("/1[0]/4[2]", nil)
	require.NoError(t, err)
	other, err := ParsePath("/1[1]/4[2]", nil)
	require.NoError(t, err)

	assert.True(t, child.HasPrefix(parent))
	assert.True(t, child.HasPrefix(nil))
	assert.False(t, other.HasPrefix(parent))
	assert.False(t, parent.HasPrefix(child))

	rel := child.TrimPrefix(parent)
	require.Len(t, rel, 1)
	assert.Equal(t, protowire.Number(4), rel[0].Field)
	assert.Equal(t, 2, rel[0].Index)
}
