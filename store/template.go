package store

import (
	"fmt"
	"time"

	"github.com/c360/graphcfg/errors"
	"github.com/c360/graphcfg/template"
	"github.com/c360/graphcfg/value"
)

// StoredTemplate is a named, versioned graph template with the default
// arguments an expansion falls back to when the caller omits them.
type StoredTemplate struct {
	// Identity
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`

	// Version for optimistic concurrency control
	Version int64 `json:"version"`

	// Template body: the serialized base graph plus its rule list
	Template template.Template `json:"template"`

	// Defaults are merged under caller arguments at expansion time
	Defaults []value.Field `json:"defaults,omitempty"`

	// Audit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the template is storable
func (t *StoredTemplate) Validate() error {
	if t.ID == "" {
		return errors.WrapSemantic(
			fmt.Errorf("%w: template ID cannot be empty", errors.ErrInvalidConfig),
			"store", "Validate", "identity validation")
	}
	if len(t.Template.Base) == 0 {
		return errors.WrapSemantic(
			fmt.Errorf("%w: template %q has no base graph", errors.ErrInvalidConfig, t.ID),
			"store", "Validate", "template body validation")
	}
	seen := make(map[string]bool, len(t.Defaults))
	for _, f := range t.Defaults {
		if f.Name == "" {
			return errors.WrapSemantic(
				fmt.Errorf("%w: template %q has an unnamed default", errors.ErrInvalidConfig, t.ID),
				"store", "Validate", "default argument validation")
		}
		if seen[f.Name] {
			return errors.WrapSemantic(
				fmt.Errorf("%w: template %q declares default %q twice", errors.ErrInvalidConfig, t.ID, f.Name),
				"store", "Validate", "default argument validation")
		}
		seen[f.Name] = true
	}
	return nil
}

// mergeArgs overlays caller arguments on the stored defaults. Both end
// up in one dict with the caller's fields appended last, so lookup's
// last-write-wins rule makes the caller win.
func mergeArgs(defaults []value.Field, args value.TaggedValue) value.TaggedValue {
	fields := make([]value.Field, 0, len(defaults)+args.Len())
	fields = append(fields, defaults...)
	fields = append(fields, args.Fields()...)
	return value.Dict(fields...)
}
