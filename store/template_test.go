package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphcfg/template"
	"github.com/c360/graphcfg/value"
)

func validTemplate() *StoredTemplate {
	return &StoredTemplate{
		ID:          "object-tracker",
		Description: "Tracking pipeline with a configurable frame rate",
		Template: template.Template{
			Base: []byte{0x0a, 0x04, 0x74, 0x65, 0x73, 0x74},
			Rules: []template.Rule{
				{Path: "/1", Op: template.OpParam, Value: "rate",
					Args: []template.Rule{{Op: template.OpLiteral, Value: "30"}}},
			},
		},
		Defaults: []value.Field{
			{Name: "rate", Value: value.Number(30)},
		},
	}
}

func TestStoredTemplateValidate(t *testing.T) {
	assert.NoError(t, validTemplate().Validate())
}

func TestStoredTemplateValidateRejectsEmptyID(t *testing.T) {
	tpl := validTemplate()
	tpl.ID = ""
	assert.Error(t, tpl.Validate())
}

func TestStoredTemplateValidateRejectsEmptyBase(t *testing.T) {
	tpl := validTemplate()
	tpl.Template.Base = nil
	assert.Error(t, tpl.Validate())
}

func TestStoredTemplateValidateRejectsBadDefaults(t *testing.T) {
	unnamed := validTemplate()
	unnamed.Defaults = append(unnamed.Defaults, value.Field{Value: value.Number(1)})
	assert.Error(t, unnamed.Validate())

	duplicate := validTemplate()
	duplicate.Defaults = append(duplicate.Defaults,
		value.Field{Name: "rate", Value: value.Number(60)})
	assert.Error(t, duplicate.Validate())
}

func TestStoredTemplateJSONRoundTrip(t *testing.T) {
	tpl := validTemplate()

	data, err := json.Marshal(tpl)
	require.NoError(t, err)

	var got StoredTemplate
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, tpl.ID, got.ID)
	assert.Equal(t, tpl.Template.Base, got.Template.Base)
	require.Len(t, got.Defaults, 1)
	assert.Equal(t, value.Number(30), got.Defaults[0].Value)
}

func TestMergeArgsCallerWins(t *testing.T) {
	defaults := []value.Field{
		{Name: "rate", Value: value.Number(30)},
		{Name: "label", Value: value.String("main")},
	}
	args := value.Dict(value.Field{Name: "rate", Value: value.Number(60)})

	merged := mergeArgs(defaults, args)

	rate, ok := merged.Lookup("rate")
	require.True(t, ok)
	assert.Equal(t, float64(60), rate.Num())

	label, ok := merged.Lookup("label")
	require.True(t, ok)
	assert.Equal(t, "main", label.Str())
}

func TestMergeArgsEmptyCaller(t *testing.T) {
	defaults := []value.Field{{Name: "rate", Value: value.Number(30)}}

	merged := mergeArgs(defaults, value.Dict())

	rate, ok := merged.Lookup("rate")
	require.True(t, ok)
	assert.Equal(t, float64(30), rate.Num())
}
