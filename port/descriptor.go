package port

import (
	"reflect"
)

// Direction for port data flow
type Direction string

// Direction constants for the four port collections
const (
	DirectionInput      Direction = "input"
	DirectionOutput     Direction = "output"
	DirectionSideInput  Direction = "side_input"
	DirectionSideOutput Direction = "side_output"
)

// AnyType is the payload sentinel for ports that accept any payload
// type; the concrete type is checked by the peer, not this port.
type AnyType struct{}

// NoneType is the payload sentinel for header-only ports that carry no
// payload.
type NoneType struct{}

// TagRef names one port slot: a tag within a direction's collection,
// at an entry index for variable-arity tags.
type TagRef struct {
	Direction Direction `json:"direction"`
	Tag       string    `json:"tag"`
	Index     int       `json:"index"`
}

// Descriptor is the direction-erased description of one port. It is
// immutable once constructed: the modifier methods on the typed
// descriptor kinds copy it rather than mutate it.
type Descriptor struct {
	Tag        string
	Direction  Direction
	Spec       TypeSpec
	IsOptional bool
	IsMultiple bool
}

// specFor derives the type requirement for payload type T, mapping the
// AnyType and NoneType sentinels to their wildcard specs.
func specFor[T any]() TypeSpec {
	t := reflect.TypeOf((*T)(nil)).Elem()
	switch t {
	case reflect.TypeOf(AnyType{}):
		return TypeSpec{Kind: SpecAny}
	case reflect.TypeOf(NoneType{}):
		return TypeSpec{Kind: SpecNone}
	}
	return TypeSpec{Kind: SpecExact, Type: t}
}

// Input describes one stream input of a node, carrying payloads of
// type T. The zero value is not usable; construct with NewInput.
type Input[T any] struct {
	desc Descriptor
}

// NewInput creates a stream input descriptor for the given tag
func NewInput[T any](tag string) Input[T] {
	return Input[T]{desc: Descriptor{
		Tag:       tag,
		Direction: DirectionInput,
		Spec:      specFor[T](),
	}}
}

// Optional returns a copy of the descriptor whose slot need not be
// connected.
func (p Input[T]) Optional() Input[T] {
	p.desc.IsOptional = true
	return p
}

// Multiple returns a copy of the descriptor accepting a variable
// number of same-tagged connections.
func (p Input[T]) Multiple() Input[T] {
	p.desc.IsMultiple = true
	return p
}

// SameTypeAs returns a copy whose payload type is inferred from
// whatever the referenced port resolves to.
func (p Input[T]) SameTypeAs(ref TagRef) Input[T] {
	p.desc.Spec = TypeSpec{Kind: SpecSameAs, SameAs: ref}
	return p
}

// OneOf returns a copy accepting any of the listed payload types
func (p Input[T]) OneOf(types ...reflect.Type) Input[T] {
	p.desc.Spec = TypeSpec{Kind: SpecOneOf, Types: types}
	return p
}

// Ref names this descriptor's primary slot
func (p Input[T]) Ref() TagRef {
	return TagRef{Direction: DirectionInput, Tag: p.desc.Tag}
}

// Describe returns the direction-erased descriptor
func (p Input[T]) Describe() Descriptor { return p.desc }

// AddToContract registers this port's type slot(s) in the contract
func (p Input[T]) AddToContract(c *Contract) {
	c.add(p.desc)
}

// Bind resolves the tag to the live stream slot for the current
// invocation. An unconnected tag yields a disconnected, null-safe
// reader.
func (p Input[T]) Bind(ctx *Context) StreamReader[T] {
	return StreamReader[T]{slot: ctx.inputSlot(p.desc.Tag, 0)}
}

// BindAll resolves a Multiple port to a lazy view over every
// same-tagged slot.
func (p Input[T]) BindAll(ctx *Context) MultiReader[T] {
	return MultiReader[T]{slots: ctx.inputSlots(p.desc.Tag)}
}

// Output describes one stream output of a node, carrying payloads of
// type T.
type Output[T any] struct {
	desc Descriptor
}

// NewOutput creates a stream output descriptor for the given tag
func NewOutput[T any](tag string) Output[T] {
	return Output[T]{desc: Descriptor{
		Tag:       tag,
		Direction: DirectionOutput,
		Spec:      specFor[T](),
	}}
}

// Optional returns a copy of the descriptor whose slot need not be
// connected.
func (p Output[T]) Optional() Output[T] {
	p.desc.IsOptional = true
	return p
}

// Multiple returns a copy of the descriptor accepting a variable
// number of same-tagged connections.
func (p Output[T]) Multiple() Output[T] {
	p.desc.IsMultiple = true
	return p
}

// SameTypeAs returns a copy whose payload type is inferred from
// whatever the referenced port resolves to.
func (p Output[T]) SameTypeAs(ref TagRef) Output[T] {
	p.desc.Spec = TypeSpec{Kind: SpecSameAs, SameAs: ref}
	return p
}

// Ref names this descriptor's primary slot
func (p Output[T]) Ref() TagRef {
	return TagRef{Direction: DirectionOutput, Tag: p.desc.Tag}
}

// Describe returns the direction-erased descriptor
func (p Output[T]) Describe() Descriptor { return p.desc }

// AddToContract registers this port's type slot(s) in the contract
func (p Output[T]) AddToContract(c *Contract) {
	c.add(p.desc)
}

// Bind resolves the tag to the live stream slot for the current
// invocation.
func (p Output[T]) Bind(ctx *Context) StreamWriter[T] {
	return StreamWriter[T]{slot: ctx.outputSlot(p.desc.Tag, 0), ctx: ctx}
}

// BindAll resolves a Multiple port to a lazy view over every
// same-tagged slot.
func (p Output[T]) BindAll(ctx *Context) MultiWriter[T] {
	return MultiWriter[T]{slots: ctx.outputSlots(p.desc.Tag), ctx: ctx}
}

// SideInput describes one side-packet input of a node: a constant
// value resolved before the graph runs.
type SideInput[T any] struct {
	desc Descriptor
}

// NewSideInput creates a side-packet input descriptor for the given tag
func NewSideInput[T any](tag string) SideInput[T] {
	return SideInput[T]{desc: Descriptor{
		Tag:       tag,
		Direction: DirectionSideInput,
		Spec:      specFor[T](),
	}}
}

// Optional returns a copy of the descriptor whose slot need not be
// connected.
func (p SideInput[T]) Optional() SideInput[T] {
	p.desc.IsOptional = true
	return p
}

// Multiple returns a copy of the descriptor accepting a variable
// number of same-tagged connections.
func (p SideInput[T]) Multiple() SideInput[T] {
	p.desc.IsMultiple = true
	return p
}

// SameTypeAs returns a copy whose payload type is inferred from
// whatever the referenced port resolves to.
func (p SideInput[T]) SameTypeAs(ref TagRef) SideInput[T] {
	p.desc.Spec = TypeSpec{Kind: SpecSameAs, SameAs: ref}
	return p
}

// Ref names this descriptor's primary slot
func (p SideInput[T]) Ref() TagRef {
	return TagRef{Direction: DirectionSideInput, Tag: p.desc.Tag}
}

// Describe returns the direction-erased descriptor
func (p SideInput[T]) Describe() Descriptor { return p.desc }

// AddToContract registers this port's type slot(s) in the contract
func (p SideInput[T]) AddToContract(c *Contract) {
	c.add(p.desc)
}

// Bind resolves the tag to the side-packet slot
func (p SideInput[T]) Bind(ctx *Context) SideReader[T] {
	return SideReader[T]{slot: ctx.sideInputSlot(p.desc.Tag, 0)}
}

// SideOutput describes one side-packet output of a node
type SideOutput[T any] struct {
	desc Descriptor
}

// NewSideOutput creates a side-packet output descriptor for the given tag
func NewSideOutput[T any](tag string) SideOutput[T] {
	return SideOutput[T]{desc: Descriptor{
		Tag:       tag,
		Direction: DirectionSideOutput,
		Spec:      specFor[T](),
	}}
}

// Optional returns a copy of the descriptor whose slot need not be
// connected.
func (p SideOutput[T]) Optional() SideOutput[T] {
	p.desc.IsOptional = true
	return p
}

// Ref names this descriptor's primary slot
func (p SideOutput[T]) Ref() TagRef {
	return TagRef{Direction: DirectionSideOutput, Tag: p.desc.Tag}
}

// Describe returns the direction-erased descriptor
func (p SideOutput[T]) Describe() Descriptor { return p.desc }

// AddToContract registers this port's type slot(s) in the contract
func (p SideOutput[T]) AddToContract(c *Contract) {
	c.add(p.desc)
}

// Bind resolves the tag to the side-packet slot
func (p SideOutput[T]) Bind(ctx *Context) SideWriter[T] {
	return SideWriter[T]{slot: ctx.sideOutputSlot(p.desc.Tag, 0)}
}

// SideFallback composes a stream input and a side-packet input under
// one tag: the value arrives either as a stream or as a side packet,
// never both.
type SideFallback[T any] struct {
	stream   Input[T]
	side     SideInput[T]
	optional bool
}

// NewSideFallback creates a stream-or-side input descriptor for the
// given tag. The underlying slots are individually optional; the
// at-least-one requirement is enforced by the fallback's own check.
func NewSideFallback[T any](tag string) SideFallback[T] {
	return SideFallback[T]{
		stream: NewInput[T](tag).Optional(),
		side:   NewSideInput[T](tag).Optional(),
	}
}

// Optional returns a copy that tolerates the tag being connected
// neither way.
func (p SideFallback[T]) Optional() SideFallback[T] {
	p.optional = true
	return p
}

// AddToContract registers both underlying descriptors, then enforces
// the fallback exclusivity invariant: the tag must be connected as a
// stream or a side packet, never both, and at least once unless the
// fallback is Optional.
func (p SideFallback[T]) AddToContract(c *Contract) {
	p.stream.AddToContract(c)
	p.side.AddToContract(c)
	c.checkFallback(p.stream.desc.Tag, p.optional)
}

// Bind resolves the tag to whichever of the two slots is connected
func (p SideFallback[T]) Bind(ctx *Context) Fallback[T] {
	return Fallback[T]{
		stream: p.stream.Bind(ctx),
		side:   p.side.Bind(ctx),
	}
}
