package poml

import "testing"

func TestAssignSpeakersDefaultsFirstSystemRestHuman(t *testing.T) {
	first := NewIRNode(IRP)
	second := NewIRNode(IRP)
	third := NewIRNode(IRP)
	nodes := []*IRNode{first, second, third}

	got := AssignSpeakers(nodes)
	if got[first] != SpeakerSystem {
		t.Errorf("first top-level node should default to system, got %s", got[first])
	}
	if got[second] != SpeakerHuman || got[third] != SpeakerHuman {
		t.Errorf("subsequent top-level nodes should default to human, got %s, %s", got[second], got[third])
	}
}

func TestAssignSpeakersInnerOverridesInherited(t *testing.T) {
	root := NewIRNode(IRP)
	root.Attrs.Set(AttrSpeaker, "human")
	child := NewIRNode(IRB)
	child.Attrs.Set(AttrSpeaker, "ai")
	grandchild := NewIRNode(IRText)
	child.Children = []*IRNode{grandchild}
	root.Children = []*IRNode{child}

	got := AssignSpeakers([]*IRNode{root})
	if got[root] != SpeakerHuman {
		t.Errorf("root should keep its own declared speaker, got %s", got[root])
	}
	if got[child] != SpeakerAI {
		t.Errorf("a node's own speaker attribute must override its parent's, got %s", got[child])
	}
	if got[grandchild] != SpeakerAI {
		t.Errorf("a node with no speaker of its own should inherit the nearest ancestor's, got %s", got[grandchild])
	}
}

func TestAssignSpeakersEveryNodeColored(t *testing.T) {
	// Total coloring: every node reachable from the forest gets an entry,
	// even deeply nested ones with no speaker anywhere in their ancestry.
	root := NewIRNode(IRList)
	item := NewIRNode(IRItem)
	leaf := NewIRNode(IRText)
	item.Children = []*IRNode{leaf}
	root.Children = []*IRNode{item}

	got := AssignSpeakers([]*IRNode{root})
	for _, n := range []*IRNode{root, item, leaf} {
		if _, ok := got[n]; !ok {
			t.Errorf("node %v missing from total-coloring result", n.Tag)
		}
	}
}

func TestNormalizeSpeakerAliases(t *testing.T) {
	tests := map[string]Speaker{
		"user":      SpeakerHuman,
		"assistant": SpeakerAI,
		"tool":      SpeakerTool,
		"system":    SpeakerSystem,
	}
	for in, want := range tests {
		got, ok := normalizeSpeaker(in)
		if !ok || got != want {
			t.Errorf("normalizeSpeaker(%q) = %s, %v; want %s, true", in, got, ok, want)
		}
	}
	if _, ok := normalizeSpeaker("nonsense"); ok {
		t.Errorf("unrecognized speaker string should not normalize")
	}
}
