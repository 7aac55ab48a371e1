package poml

// Stylesheet is a mapping from selector (bare tag name, or ".class") to
// attribute overrides. The selector language is deliberately minimal: no
// combinators, no attribute selectors, nothing beyond tag-name or .class.
type Stylesheet map[string]map[string]any

// Apply walks the IR tree, overriding attributes on each element per the
// selectors that match its tag or any of its declared classes.
// "Element wins": a stylesheet value only takes effect when the element
// does not already define that attribute explicitly.
func (s Stylesheet) Apply(root *IRNode) {
	if len(s) == 0 || root == nil {
		return
	}
	root.Walk(func(n *IRNode) {
		s.applyNode(n)
	})
}

func (s Stylesheet) applyNode(n *IRNode) {
	if overrides, ok := s[string(n.Tag)]; ok {
		applyOverrides(n, overrides)
	}
	for _, class := range n.Attrs.ClassList() {
		if overrides, ok := s["."+class]; ok {
			applyOverrides(n, overrides)
		}
	}
}

func applyOverrides(n *IRNode, overrides map[string]any) {
	for k, v := range overrides {
		n.Attrs.SetIfAbsent(k, v)
	}
}
