package poml

import (
	"fmt"
	"sync"
)

// ParamSpec documents one parameter a component accepts; the core only
// needs Render, but the schema is kept since it is cheap and is exactly
// the shape an editor collaborator's completion/hover would read from
// this same registry.
type ParamSpec struct {
	Name        string
	Type        string
	Choices     []string
	Required    bool
	Default     any
	Description string
}

// RenderContext is what a component's Render function receives: its own
// AST node (for diagnostics), interpolated attribute values, and its
// children already reduced to IR by the reader's recursive walk.
type RenderContext struct {
	Node     *ASTNode
	Attrs    map[string]any
	Children []*IRNode
	Comp     *Compilation
	Ctx      Context
}

// Attr returns a component attribute as a string, applying def when absent.
func (rc *RenderContext) Attr(name, def string) string {
	v, ok := rc.Attrs[name]
	if !ok {
		return def
	}
	return toStr(v)
}

// AttrBool returns a component attribute coerced to bool.
func (rc *RenderContext) AttrBool(name string, def bool) bool {
	v, ok := rc.Attrs[name]
	if !ok {
		return def
	}
	return truthy(v)
}

// AttrInt returns a component attribute coerced to int.
func (rc *RenderContext) AttrInt(name string, def int) int {
	v, ok := rc.Attrs[name]
	if !ok {
		return def
	}
	f, ok := toNumber(v)
	if !ok {
		return def
	}
	return int(f)
}

// RenderFunc produces at most one IR node for one source element. Most
// components produce exactly one; a component may also return nil with no
// error to emit nothing (mirroring <let>/<meta>, though those bypass the
// registry entirely).
type RenderFunc func(rc *RenderContext) (*IRNode, error)

// Component is a named element renderer with a parameter schema.
type Component struct {
	Name     string
	Aliases  []string
	Params   []ParamSpec
	Render   RenderFunc
	Async    bool
	IsPublic bool
}

var (
	registryOnce sync.Once
	registry     = map[string]*Component{}
)

// RegisterComponent adds c to the process-wide registry under its
// canonical name and every alias, case/hyphen tolerant. Registration is
// idempotent: re-registering the same name replaces the previous entry,
// which lets the registry be rebuilt safely from initRegistry's sync.Once
// in tests that import the package multiple times in-process.
func RegisterComponent(c *Component) {
	registry[canonicalizeName(c.Name)] = c
	for _, a := range c.Aliases {
		registry[canonicalizeName(a)] = c
	}
}

func initRegistry() {
	registryOnce.Do(func() {
		for _, c := range builtinComponents() {
			RegisterComponent(c)
		}
	})
}

// findByAlias resolves name to a Component, case-insensitively and with
// hyphen<->camelCase tolerance, honoring the supplied opt-out set (merged
// from Options.Disabled and any <meta components="-Tag"> directive).
func findByAlias(name string, disabled map[string]bool) (*Component, error) {
	initRegistry()
	canon := canonicalizeName(name)
	c, ok := registry[canon]
	if !ok {
		return nil, fmt.Errorf("unknown component %q", name)
	}
	if disabled[canonicalizeName(c.Name)] || disabled[canon] {
		return nil, fmt.Errorf("component %q is disabled", name)
	}
	return c, nil
}
