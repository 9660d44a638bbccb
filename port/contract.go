package port

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/c360/graphcfg/errors"
)

// SpecKind discriminates the type requirement of a slot
type SpecKind int

const (
	// SpecExact requires one concrete payload type
	SpecExact SpecKind = iota
	// SpecAny accepts any payload type
	SpecAny
	// SpecNone marks a header-only port carrying no payload
	SpecNone
	// SpecOneOf accepts any of a fixed set of payload types
	SpecOneOf
	// SpecSameAs infers the type from another port's resolution
	SpecSameAs
)

// TypeSpec is a slot's type requirement
type TypeSpec struct {
	Kind   SpecKind
	Type   reflect.Type
	Types  []reflect.Type
	SameAs TagRef
}

func (s TypeSpec) String() string {
	switch s.Kind {
	case SpecAny:
		return "any"
	case SpecNone:
		return "none"
	case SpecOneOf:
		names := make([]string, len(s.Types))
		for i, t := range s.Types {
			names[i] = t.String()
		}
		return "one of [" + strings.Join(names, ", ") + "]"
	case SpecSameAs:
		return fmt.Sprintf("same as %s %q", s.SameAs.Direction, s.SameAs.Tag)
	default:
		if s.Type == nil {
			return "unset"
		}
		return s.Type.String()
	}
}

// Accepts reports whether a concrete payload type satisfies the
// requirement. SameAs specs answer only after resolution.
func (s TypeSpec) Accepts(t reflect.Type) bool {
	switch s.Kind {
	case SpecAny:
		return true
	case SpecNone:
		return false
	case SpecOneOf:
		for _, want := range s.Types {
			if want == t {
				return true
			}
		}
		return false
	case SpecSameAs:
		return false
	default:
		return s.Type == t
	}
}

// TypeSlot is one entry of a contract's port collection: the declared
// type requirement plus the optionality and connection state for one
// (tag, index) slot.
type TypeSlot struct {
	Tag       string
	Index     int
	Name      string
	Spec      TypeSpec
	Optional  bool
	Connected bool

	resolved     reflect.Type
	unresolvable bool
}

// ResolvedType returns the concrete payload type after Resolve, nil
// for wildcard and header-only slots.
func (s *TypeSlot) ResolvedType() reflect.Type { return s.resolved }

// TagMap is one direction's port collection: tag to indexed slots, in
// registration order per tag.
type TagMap struct {
	slots map[string][]*TypeSlot
	tags  []string
}

// NewTagMap creates an empty collection
func NewTagMap() *TagMap {
	return &TagMap{slots: make(map[string][]*TypeSlot)}
}

// Get returns the slot at (tag, index), nil when absent
func (m *TagMap) Get(tag string, index int) *TypeSlot {
	entries := m.slots[tag]
	if index < 0 || index >= len(entries) {
		return nil
	}
	return entries[index]
}

// Count returns the number of entries registered under tag
func (m *TagMap) Count(tag string) int {
	return len(m.slots[tag])
}

// Tags returns all tags in first-registration order
func (m *TagMap) Tags() []string {
	return m.tags
}

// Entries returns the slots registered under tag, in index order
func (m *TagMap) Entries(tag string) []*TypeSlot {
	return m.slots[tag]
}

// Add appends a new slot under tag and returns it
func (m *TagMap) Add(tag string) *TypeSlot {
	if _, seen := m.slots[tag]; !seen {
		m.tags = append(m.tags, tag)
	}
	slot := &TypeSlot{Tag: tag, Index: len(m.slots[tag])}
	m.slots[tag] = append(m.slots[tag], slot)
	return slot
}

// getOrCreate returns the slot at (tag, 0), creating it if absent
func (m *TagMap) getOrCreate(tag string) *TypeSlot {
	if slot := m.Get(tag, 0); slot != nil {
		return slot
	}
	return m.Add(tag)
}

// Contract is one node's port declaration, populated by each
// descriptor's AddToContract during graph validation. Contract
// violations are reported at the point of detection and collected on
// the contract.
type Contract struct {
	Inputs      *TagMap
	Outputs     *TagMap
	SideInputs  *TagMap
	SideOutputs *TagMap

	errs []error
}

// NewContract creates an empty contract
func NewContract() *Contract {
	return &Contract{
		Inputs:      NewTagMap(),
		Outputs:     NewTagMap(),
		SideInputs:  NewTagMap(),
		SideOutputs: NewTagMap(),
	}
}

// Collection returns the port collection for a direction
func (c *Contract) Collection(d Direction) *TagMap {
	switch d {
	case DirectionInput:
		return c.Inputs
	case DirectionOutput:
		return c.Outputs
	case DirectionSideInput:
		return c.SideInputs
	default:
		return c.SideOutputs
	}
}

// AddError records a contract violation
func (c *Contract) AddError(err error) {
	c.errs = append(c.errs, err)
}

// Errors returns every violation recorded so far
func (c *Contract) Errors() []error {
	return c.errs
}

// add registers a descriptor's slot(s). Multiple descriptors apply to
// every same-tagged entry already present (seeded from the node's
// connections), so a tag with no connections registers nothing.
func (c *Contract) add(d Descriptor) {
	coll := c.Collection(d.Direction)
	if d.IsMultiple {
		for _, slot := range coll.Entries(d.Tag) {
			slot.Spec = d.Spec
			slot.Optional = d.IsOptional
		}
		return
	}
	slot := coll.getOrCreate(d.Tag)
	slot.Spec = d.Spec
	slot.Optional = d.IsOptional
}

// checkFallback enforces the stream-or-side exclusivity invariant for
// a fallback tag.
func (c *Contract) checkFallback(tag string, optional bool) {
	connected := 0
	if slot := c.Inputs.Get(tag, 0); slot != nil && slot.Connected {
		connected++
	}
	if slot := c.SideInputs.Get(tag, 0); slot != nil && slot.Connected {
		connected++
	}
	if connected > 1 {
		c.AddError(errors.WrapContract(
			fmt.Errorf("%w: tag %q is connected as both a stream and a side packet", errors.ErrPortConflict, tag),
			"Contract", "AddToContract", "fallback exclusivity"))
	}
	if connected == 0 && !optional {
		c.AddError(errors.WrapContract(
			fmt.Errorf("%w: tag %q is connected neither as a stream nor as a side packet", errors.ErrPortUnconnected, tag),
			"Contract", "AddToContract", "fallback connection"))
	}
}

// Resolve runs the same-type inference pass: SameAs slots take the
// concrete type of the slot they reference, transitively. A chain
// that never reaches a concrete type is a contract error. Resolve is
// called once per contract build.
func (c *Contract) Resolve() {
	for _, coll := range []*TagMap{c.Inputs, c.Outputs, c.SideInputs, c.SideOutputs} {
		for _, tag := range coll.Tags() {
			for _, slot := range coll.Entries(tag) {
				c.resolveSlot(slot, nil)
			}
		}
	}
}

func (c *Contract) resolveSlot(slot *TypeSlot, trail []*TypeSlot) reflect.Type {
	if slot.resolved != nil || slot.unresolvable {
		return slot.resolved
	}
	if slot.Spec.Kind != SpecSameAs {
		slot.resolved = slot.Spec.Type
		return slot.resolved
	}

	for _, seen := range trail {
		if seen == slot {
			slot.unresolvable = true
			c.AddError(errors.WrapContract(
				fmt.Errorf("%w: tag %q is in a same-type cycle", errors.ErrTypeUnresolved, slot.Tag),
				"Contract", "Resolve", "same-type inference"))
			return nil
		}
	}

	ref := slot.Spec.SameAs
	peer := c.Collection(ref.Direction).Get(ref.Tag, ref.Index)
	if peer == nil {
		slot.unresolvable = true
		c.AddError(errors.WrapContract(
			fmt.Errorf("%w: tag %q references unknown port %s %q", errors.ErrTypeUnresolved, slot.Tag, ref.Direction, ref.Tag),
			"Contract", "Resolve", "same-type inference"))
		return nil
	}
	t := c.resolveSlot(peer, append(trail, slot))
	if t == nil {
		if !slot.unresolvable && peer.Spec.Kind != SpecAny && peer.Spec.Kind != SpecNone {
			slot.unresolvable = true
			c.AddError(errors.WrapContract(
				fmt.Errorf("%w: tag %q never resolves to a concrete type", errors.ErrTypeUnresolved, slot.Tag),
				"Contract", "Resolve", "same-type inference"))
		}
		return nil
	}
	slot.resolved = t
	return t
}

// Validate checks the connection requirements after population: every
// non-optional input-side slot must be connected. Output slots may
// dangle.
func (c *Contract) Validate() []error {
	c.Resolve()
	for _, coll := range []*TagMap{c.Inputs, c.SideInputs} {
		for _, tag := range coll.Tags() {
			for _, slot := range coll.Entries(tag) {
				if !slot.Optional && !slot.Connected {
					c.AddError(errors.WrapContract(
						fmt.Errorf("%w: required %s tag %q is not connected",
							errors.ErrPortUnconnected, directionOf(c, coll), tag),
						"Contract", "Validate", "connection check"))
				}
			}
		}
	}
	return c.errs
}

func directionOf(c *Contract, m *TagMap) Direction {
	if m == c.SideInputs {
		return DirectionSideInput
	}
	return DirectionInput
}
