package port

// Packet is one value sent on an output stream, at a sequence position
type Packet struct {
	Value     any
	Timestamp int64
}

// StreamSlot is the live state of one connected stream for one
// invocation. Input slots carry the current value and the upstream
// done flag; output slots accumulate sent packets. Slots are owned by
// the surrounding executor; wrappers are transient views over them.
type StreamSlot struct {
	Name   string
	header any

	// input side
	value    any
	hasValue bool
	consumed bool
	done     bool

	// output side
	sent   []Packet
	closed bool
}

// NewStreamSlot creates a slot for the named stream
func NewStreamSlot(name string) *StreamSlot {
	return &StreamSlot{Name: name}
}

// SetHeader installs the stream header
func (s *StreamSlot) SetHeader(h any) { s.header = h }

// Header returns the stream header
func (s *StreamSlot) Header() any { return s.header }

// SetValue installs the current input value for this invocation
func (s *StreamSlot) SetValue(v any) {
	s.value = v
	s.hasValue = true
	s.consumed = false
}

// ClearValue removes the current input value
func (s *StreamSlot) ClearValue() {
	s.value = nil
	s.hasValue = false
	s.consumed = false
}

// SetDone marks the upstream as closed
func (s *StreamSlot) SetDone() { s.done = true }

// Sent returns the packets written to an output slot, in send order
func (s *StreamSlot) Sent() []Packet { return s.sent }

// Closed reports whether the downstream has been closed
func (s *StreamSlot) Closed() bool { return s.closed }

// SideSlot is the live state of one connected side packet
type SideSlot struct {
	Name     string
	value    any
	hasValue bool
}

// NewSideSlot creates a slot for the named side packet
func NewSideSlot(name string) *SideSlot {
	return &SideSlot{Name: name}
}

// SetValue installs the side-packet value
func (s *SideSlot) SetValue(v any) {
	s.value = v
	s.hasValue = true
}

// Value returns the side-packet value and whether one is present
func (s *SideSlot) Value() (any, bool) { return s.value, s.hasValue }

// Context binds a node's tags to the live slots of the current
// invocation. Wrapper construction through a descriptor's Bind is
// cheap; wrappers must not outlive the invocation.
type Context struct {
	// Timestamp is the current invocation's sequence position,
	// used by Send when no explicit position is given.
	Timestamp int64

	inputs      map[string][]*StreamSlot
	outputs     map[string][]*StreamSlot
	sideInputs  map[string][]*SideSlot
	sideOutputs map[string][]*SideSlot
}

// NewContext creates an empty invocation context
func NewContext() *Context {
	return &Context{
		inputs:      make(map[string][]*StreamSlot),
		outputs:     make(map[string][]*StreamSlot),
		sideInputs:  make(map[string][]*SideSlot),
		sideOutputs: make(map[string][]*SideSlot),
	}
}

// AddInput connects a stream slot under an input tag
func (c *Context) AddInput(tag string, s *StreamSlot) {
	c.inputs[tag] = append(c.inputs[tag], s)
}

// AddOutput connects a stream slot under an output tag
func (c *Context) AddOutput(tag string, s *StreamSlot) {
	c.outputs[tag] = append(c.outputs[tag], s)
}

// AddSideInput connects a side-packet slot under a side-input tag
func (c *Context) AddSideInput(tag string, s *SideSlot) {
	c.sideInputs[tag] = append(c.sideInputs[tag], s)
}

// AddSideOutput connects a side-packet slot under a side-output tag
func (c *Context) AddSideOutput(tag string, s *SideSlot) {
	c.sideOutputs[tag] = append(c.sideOutputs[tag], s)
}

func (c *Context) inputSlot(tag string, index int) *StreamSlot {
	return streamAt(c.inputs[tag], index)
}

func (c *Context) outputSlot(tag string, index int) *StreamSlot {
	return streamAt(c.outputs[tag], index)
}

func (c *Context) inputSlots(tag string) []*StreamSlot {
	return c.inputs[tag]
}

func (c *Context) outputSlots(tag string) []*StreamSlot {
	return c.outputs[tag]
}

func (c *Context) sideInputSlot(tag string, index int) *SideSlot {
	slots := c.sideInputs[tag]
	if index < 0 || index >= len(slots) {
		return nil
	}
	return slots[index]
}

func (c *Context) sideOutputSlot(tag string, index int) *SideSlot {
	slots := c.sideOutputs[tag]
	if index < 0 || index >= len(slots) {
		return nil
	}
	return slots[index]
}

func streamAt(slots []*StreamSlot, index int) *StreamSlot {
	if index < 0 || index >= len(slots) {
		return nil
	}
	return slots[index]
}

// StreamReader is the typed view over one input stream for one
// invocation. A disconnected reader is null-safe: every accessor
// returns its defined-empty result.
type StreamReader[T any] struct {
	slot *StreamSlot
}

// IsConnected reports whether the tag resolved to a live slot
func (r StreamReader[T]) IsConnected() bool { return r.slot != nil }

// IsDone reports whether the upstream has closed. Disconnected
// streams report done.
func (r StreamReader[T]) IsDone() bool {
	return r.slot == nil || r.slot.done
}

// Header returns the stream header, nil when disconnected
func (r StreamReader[T]) Header() any {
	if r.slot == nil {
		return nil
	}
	return r.slot.header
}

// Value returns the current payload without taking ownership
func (r StreamReader[T]) Value() (T, bool) {
	var zero T
	if r.slot == nil || !r.slot.hasValue || r.slot.consumed {
		return zero, false
	}
	v, ok := r.slot.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Consume atomically takes exclusive ownership of the payload. On a
// failed type assertion ownership is restored, so a later Consume
// with the right type still succeeds.
func (r StreamReader[T]) Consume() (T, bool) {
	var zero T
	if r.slot == nil || !r.slot.hasValue || r.slot.consumed {
		return zero, false
	}
	r.slot.consumed = true
	v, ok := r.slot.value.(T)
	if !ok {
		r.slot.consumed = false
		return zero, false
	}
	return v, true
}

// StreamWriter is the typed view over one output stream for one
// invocation. A disconnected writer silently drops everything.
type StreamWriter[T any] struct {
	slot *StreamSlot
	ctx  *Context
}

// IsConnected reports whether the tag resolved to a live slot
func (w StreamWriter[T]) IsConnected() bool { return w.slot != nil }

// Send writes a value at the current invocation's sequence position
func (w StreamWriter[T]) Send(v T) {
	if w.slot == nil || w.slot.closed {
		return
	}
	w.slot.sent = append(w.slot.sent, Packet{Value: v, Timestamp: w.ctx.Timestamp})
}

// SendAt writes a value at an explicit sequence position
func (w StreamWriter[T]) SendAt(v T, timestamp int64) {
	if w.slot == nil || w.slot.closed {
		return
	}
	w.slot.sent = append(w.slot.sent, Packet{Value: v, Timestamp: timestamp})
}

// SetHeader installs the downstream header
func (w StreamWriter[T]) SetHeader(h any) {
	if w.slot == nil {
		return
	}
	w.slot.header = h
}

// Close closes the downstream; further sends are dropped
func (w StreamWriter[T]) Close() {
	if w.slot == nil {
		return
	}
	w.slot.closed = true
}

// SideReader is the typed view over one input side packet
type SideReader[T any] struct {
	slot *SideSlot
}

// IsConnected reports whether the tag resolved to a live slot
func (r SideReader[T]) IsConnected() bool { return r.slot != nil }

// Value returns the side-packet value
func (r SideReader[T]) Value() (T, bool) {
	var zero T
	if r.slot == nil || !r.slot.hasValue {
		return zero, false
	}
	v, ok := r.slot.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// SideWriter is the typed view over one output side packet
type SideWriter[T any] struct {
	slot *SideSlot
}

// IsConnected reports whether the tag resolved to a live slot
func (w SideWriter[T]) IsConnected() bool { return w.slot != nil }

// Set installs the side-packet value
func (w SideWriter[T]) Set(v T) {
	if w.slot == nil {
		return
	}
	w.slot.SetValue(v)
}

// Fallback is the view over a stream-or-side input tag. Contract
// validation guarantees at most one of the two is connected.
type Fallback[T any] struct {
	stream StreamReader[T]
	side   SideReader[T]
}

// IsConnected reports whether the tag resolved either way
func (f Fallback[T]) IsConnected() bool {
	return f.stream.IsConnected() || f.side.IsConnected()
}

// ResolvedToStream reports whether the tag resolved to the stream
func (f Fallback[T]) ResolvedToStream() bool {
	return f.stream.IsConnected()
}

// Stream returns the underlying stream view
func (f Fallback[T]) Stream() StreamReader[T] { return f.stream }

// Side returns the underlying side-packet view
func (f Fallback[T]) Side() SideReader[T] { return f.side }

// Value returns the payload from whichever way the tag resolved
func (f Fallback[T]) Value() (T, bool) {
	if f.stream.IsConnected() {
		return f.stream.Value()
	}
	return f.side.Value()
}

// MultiReader is a lazy, indexable view over every slot of a Multiple
// input tag. Readers are constructed on access, not materialized.
type MultiReader[T any] struct {
	slots []*StreamSlot
}

// Count returns the number of connected entries
func (m MultiReader[T]) Count() int { return len(m.slots) }

// At returns the reader for entry i
func (m MultiReader[T]) At(i int) StreamReader[T] {
	return StreamReader[T]{slot: streamAt(m.slots, i)}
}

// Each calls fn for every entry in index order
func (m MultiReader[T]) Each(fn func(int, StreamReader[T])) {
	for i := range m.slots {
		fn(i, m.At(i))
	}
}

// MultiWriter is a lazy, indexable view over every slot of a Multiple
// output tag.
type MultiWriter[T any] struct {
	slots []*StreamSlot
	ctx   *Context
}

// Count returns the number of connected entries
func (m MultiWriter[T]) Count() int { return len(m.slots) }

// At returns the writer for entry i
func (m MultiWriter[T]) At(i int) StreamWriter[T] {
	return StreamWriter[T]{slot: streamAt(m.slots, i), ctx: m.ctx}
}

// Each calls fn for every entry in index order
func (m MultiWriter[T]) Each(fn func(int, StreamWriter[T])) {
	for i := range m.slots {
		fn(i, m.At(i))
	}
}
