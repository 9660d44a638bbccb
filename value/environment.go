package value

// Environment holds the named-argument bindings for one expansion pass.
// It is a mutable dict with dynamic scoping: loop and param rules
// install bindings through Scoped, which saves any previous binding of
// the name and restores it on exit, so shadowing stays correct under
// recursion and on early error returns.
type Environment struct {
	dict TaggedValue
}

// NewEnvironment creates an environment seeded from a caller-supplied
// argument dict. A non-dict seed starts empty.
func NewEnvironment(args TaggedValue) *Environment {
	if args.Kind() != KindDict {
		args = Dict()
	}
	return &Environment{dict: args}
}

// Lookup returns the current binding for name
func (e *Environment) Lookup(name string) (TaggedValue, bool) {
	return e.dict.Lookup(name)
}

// Bind installs or replaces the binding for name
func (e *Environment) Bind(name string, v TaggedValue) {
	for i := len(e.dict.fields) - 1; i >= 0; i-- {
		if e.dict.fields[i].Name == name {
			e.dict.fields[i].Value = v
			return
		}
	}
	e.dict = e.dict.WithField(name, v)
}

// Scoped installs a binding for the duration of fn, then restores the
// previous state of the name: its old value if it was bound, or absence
// if it was not.
func (e *Environment) Scoped(name string, v TaggedValue, fn func()) {
	old, had := e.dict.Lookup(name)
	e.Bind(name, v)
	defer func() {
		if had {
			e.Bind(name, old)
		} else {
			e.unbind(name)
		}
	}()
	fn()
}

// unbind removes every binding of name
func (e *Environment) unbind(name string) {
	kept := e.dict.fields[:0]
	for _, f := range e.dict.fields {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	e.dict.fields = kept
}

// Dict returns the environment's current contents as a dict value
func (e *Environment) Dict() TaggedValue {
	return e.dict
}
