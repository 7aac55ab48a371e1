package poml

// Speaker identifies who a chunk of rendered content is attributed to:
// the closed vocabulary for chat-style output.
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerHuman  Speaker = "human"
	SpeakerAI     Speaker = "ai"
	SpeakerTool   Speaker = "tool"
)

// AssignSpeakers total-colors every node reachable from nodes with a
// Speaker: a node carrying its own speaker attribute (set by the role/
// system/human/ai/tool components) wins over any ancestor's, and
// everything else inherits its parent's. A top-level node with nothing
// to inherit from defaults to system if it is the document's first
// top-level node, human otherwise — the coercion rule this package uses
// to resolve the open question of what an un-rolled document's implicit
// speakers should be.
func AssignSpeakers(nodes []*IRNode) map[*IRNode]Speaker {
	out := map[*IRNode]Speaker{}
	for i, n := range nodes {
		def := SpeakerHuman
		if i == 0 {
			def = SpeakerSystem
		}
		assignSpeaker(n, def, out)
	}
	return out
}

func assignSpeaker(n *IRNode, inherited Speaker, out map[*IRNode]Speaker) {
	current := inherited
	if v, ok := n.Attrs.Get(AttrSpeaker); ok {
		if sp, ok := normalizeSpeaker(toStr(v)); ok {
			current = sp
		}
	}
	out[n] = current
	for _, c := range n.Children {
		assignSpeaker(c, current, out)
	}
}

func normalizeSpeaker(s string) (Speaker, bool) {
	switch s {
	case "system":
		return SpeakerSystem, true
	case "human", "user":
		return SpeakerHuman, true
	case "ai", "assistant":
		return SpeakerAI, true
	case "tool":
		return SpeakerTool, true
	default:
		return "", false
	}
}
