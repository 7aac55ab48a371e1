package poml

// Context is a lexically-scoped variable environment. Each for-loop
// iteration and nested reader recursion pushes a child scope whose lookups
// fall through to the parent chain; <let> bindings always write through to
// the outermost (global) scope regardless of how deep the current reader
// recursion is.
type Context struct {
	vars   map[string]any
	parent *Context
	root   *Context
}

// NewContext returns a fresh top-level (global) context.
func NewContext() Context {
	c := Context{vars: map[string]any{}}
	c.root = &c
	return c
}

// Child returns a new scope nested under c, used for for-loop item/loop
// bindings within a single iteration's body.
func (c Context) Child() Context {
	return Context{vars: map[string]any{}, parent: &c, root: c.root}
}

// Get resolves name by walking outward from the local scope to the root.
func (c Context) Get(name string) (any, bool) {
	for s := &c; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in the local scope only (for-loop/if bindings).
func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

// SetGlobal binds name in the outermost scope, implementing <let>'s
// always-global semantics.
func (c *Context) SetGlobal(name string, value any) {
	c.root.vars[name] = value
}

// MergeGlobal copies every key of obj into the global scope, used when a <let
// src=...> loads an object with no explicit name.
func (c *Context) MergeGlobal(obj map[string]any) {
	for k, v := range obj {
		c.root.vars[k] = v
	}
}

// LoopBinding is the synthetic `loop` object every for-loop iteration
// exposes alongside its item binding.
type LoopBinding struct {
	Index  int
	Length int
	First  bool
	Last   bool
}
