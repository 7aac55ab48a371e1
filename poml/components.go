package poml

// builtinComponents returns the built-in component descriptors registered
// at process start. The set covers the closed IR vocabulary; it is
// intentionally not an exhaustive reproduction of every POML tag ever
// authored, just enough surface for the pipeline to exercise every IR
// element and every writer.
func builtinComponents() []*Component {
	return []*Component{
		envComponent("poml"),
		envComponent("env"),
		speakerComponent("role", ""),
		speakerComponent("system", "system"),
		speakerComponent("human", "human"),
		speakerComponent("ai", "ai"),
		speakerComponent("tool", "tool"),
		{Name: "task", Aliases: []string{"Task"}, IsPublic: true,
			Params: []ParamSpec{{Name: "caption", Type: "string"}},
			Render: renderBlock(IRP)},
		{Name: "p", Aliases: []string{"paragraph"}, IsPublic: true, Render: renderBlock(IRP)},
		{Name: "cp", Aliases: []string{"captionedparagraph"}, IsPublic: true,
			Params: []ParamSpec{{Name: "caption", Type: "string"}},
			Render: renderCaptioned},
		{Name: "span", Aliases: []string{"text"}, IsPublic: true, Render: renderInline(IRSpanTag)},
		{Name: "b", Aliases: []string{"bold", "strong"}, IsPublic: true, Render: renderInline(IRB)},
		{Name: "i", Aliases: []string{"italic", "em"}, IsPublic: true, Render: renderInline(IRI)},
		{Name: "u", Aliases: []string{"underline"}, IsPublic: true, Render: renderInline(IRU)},
		{Name: "s", Aliases: []string{"strike", "strikethrough", "del"}, IsPublic: true, Render: renderInline(IRS)},
		{Name: "nl", Aliases: []string{"br", "newline"}, IsPublic: true, Render: renderLeaf(IRNl)},
		{Name: "code", Aliases: []string{}, IsPublic: true,
			Params: []ParamSpec{{Name: "inline", Type: "boolean", Default: false}, {Name: "lang", Type: "string"}},
			Render: renderCode},
		{Name: "h", Aliases: []string{"header", "headline"}, IsPublic: true,
			Params: []ParamSpec{{Name: "level", Type: "integer"}}, Render: renderHeader},
		{Name: "section", Aliases: []string{"subcontent"}, IsPublic: true, Render: renderSection},
		{Name: "list", Aliases: []string{"ul", "ol"}, IsPublic: true,
			Params: []ParamSpec{{Name: "listStyle", Type: "string", Choices: []string{"star", "dash", "plus", "decimal", "latin"}}},
			Render: renderList},
		{Name: "item", Aliases: []string{"li"}, IsPublic: true, Render: renderItem},
		{Name: "table", Aliases: []string{}, IsPublic: true, Render: renderContainer(IRTable)},
		{Name: "thead", Aliases: []string{}, IsPublic: true, Render: renderContainer(IRThead)},
		{Name: "tbody", Aliases: []string{}, IsPublic: true, Render: renderContainer(IRTbody)},
		{Name: "trow", Aliases: []string{"tr"}, IsPublic: true, Render: renderContainer(IRTrow)},
		{Name: "tcell", Aliases: []string{"td", "th"}, IsPublic: true, Render: renderContainer(IRTcell)},
		{Name: "img", Aliases: []string{"image"}, IsPublic: true, Async: true,
			Params: []ParamSpec{{Name: "src", Type: "string", Required: true}, {Name: "alt", Type: "string"}, {Name: "position", Type: "string", Choices: []string{"top", "here", "bottom"}, Default: "here"}},
			Render: renderMedia(IRImg)},
		{Name: "audio", Aliases: []string{}, IsPublic: true, Async: true,
			Params: []ParamSpec{{Name: "src", Type: "string", Required: true}, {Name: "position", Type: "string", Default: "here"}},
			Render: renderMedia(IRAudio)},
		{Name: "toolrequest", Aliases: []string{}, IsPublic: true, Render: renderMedia(IRToolRequest)},
		{Name: "toolresponse", Aliases: []string{}, IsPublic: true, Render: renderMedia(IRToolResponse)},
		{Name: "obj", Aliases: []string{"object"}, IsPublic: true,
			Params: []ParamSpec{{Name: "data", Type: "string"}}, Render: renderObj},
		{Name: "any", Aliases: []string{}, IsPublic: true,
			Params: []ParamSpec{{Name: "type", Type: "string", Choices: []string{"integer", "float", "boolean", "array", "null", "string"}}},
			Render: renderAny},
		{Name: "document", Aliases: []string{}, IsPublic: true, Render: renderContainer(IRP)},
	}
}

// applyCommonAttrs copies the cross-cutting IR attributes every element may
// declare (speaker/class/priority/char-limit/token-limit/whitespace),
// independent of which tag produced the node.
func applyCommonAttrs(ir *IRNode, rc *RenderContext) {
	if v, ok := rc.Attrs[AttrSpeaker]; ok {
		ir.Attrs.Set(AttrSpeaker, toStr(v))
	}
	if v, ok := rc.Attrs[AttrClass]; ok {
		ir.Attrs.Set(AttrClass, toStr(v))
	}
	if v, ok := rc.Attrs[AttrPriority]; ok {
		ir.Attrs.Set(AttrPriority, v)
	}
	if v, ok := rc.Attrs[AttrCharLimit]; ok {
		ir.Attrs.Set(AttrCharLimit, v)
	}
	if v, ok := rc.Attrs[AttrTokenLimit]; ok {
		ir.Attrs.Set(AttrTokenLimit, v)
	}
	if v, ok := rc.Attrs[AttrWhitespace]; ok {
		ir.Attrs.Set(AttrWhitespace, toStr(v))
	}
}

func renderBlock(tag IRTag) RenderFunc {
	return func(rc *RenderContext) (*IRNode, error) {
		ir := NewIRNode(tag)
		applyCommonAttrs(ir, rc)
		ir.Children = rc.Children
		return ir, nil
	}
}

func renderInline(tag IRTag) RenderFunc {
	return renderBlock(tag)
}

func renderLeaf(tag IRTag) RenderFunc {
	return func(rc *RenderContext) (*IRNode, error) {
		ir := NewIRNode(tag)
		applyCommonAttrs(ir, rc)
		return ir, nil
	}
}

func renderContainer(tag IRTag) RenderFunc {
	return renderBlock(tag)
}

func renderCaptioned(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRP)
	applyCommonAttrs(ir, rc)
	if caption := rc.Attr("caption", ""); caption != "" {
		b := NewIRNode(IRB)
		b.Children = []*IRNode{NewIRText(caption, Span{})}
		ir.Children = append(ir.Children, b, NewIRNode(IRNl))
	}
	ir.Children = append(ir.Children, rc.Children...)
	return ir, nil
}

func renderCode(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRCode)
	applyCommonAttrs(ir, rc)
	ir.Attrs.Set("inline", rc.AttrBool("inline", false))
	if lang := rc.Attr("lang", ""); lang != "" {
		ir.Attrs.Set("lang", lang)
	}
	ir.Children = rc.Children
	return ir, nil
}

func renderHeader(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRH)
	applyCommonAttrs(ir, rc)
	ir.Attrs.Set("level", rc.AttrInt("level", 1))
	ir.Children = rc.Children
	return ir, nil
}

func renderSection(rc *RenderContext) (*IRNode, error) {
	// <section> increases nesting for nested headers; modeled as a plain
	// <p> container IR node carrying a "nesting" attribute, which the
	// Markdown writer checks when computing header depth.
	ir := NewIRNode(IRP)
	ir.Attrs.Set("nesting", true)
	applyCommonAttrs(ir, rc)
	ir.Children = rc.Children
	return ir, nil
}

func renderList(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRList)
	applyCommonAttrs(ir, rc)
	style := rc.Attr("listStyle", "")
	if style != "" {
		ir.Attrs.Set("listStyle", style)
	}
	ir.Attrs.Set("ordered", listIsOrdered(rc.Node.OriginalTag, style))
	ir.Children = rc.Children
	return ir, nil
}

// listIsOrdered decides numbered vs bulleted rendering: the <ol> alias
// or a numeral-shaped listStyle (decimal/latin) both mean ordered; the
// <ul> alias or a bullet-shaped listStyle (star/dash/plus) mean
// unordered. <list> with neither defaults to unordered.
func listIsOrdered(originalTag, style string) bool {
	switch toLowerTag(originalTag) {
	case "ol":
		return true
	case "ul":
		return false
	}
	switch style {
	case "decimal", "latin":
		return true
	default:
		return false
	}
}

func toLowerTag(s string) string {
	var b []rune
	for _, r := range s {
		b = append(b, toLowerRune(r))
	}
	return string(b)
}

func renderItem(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRItem)
	applyCommonAttrs(ir, rc)
	ir.Children = rc.Children
	return ir, nil
}

func renderMedia(tag IRTag) RenderFunc {
	return func(rc *RenderContext) (*IRNode, error) {
		ir := NewIRNode(tag)
		applyCommonAttrs(ir, rc)
		if src := rc.Attr("src", ""); src != "" {
			if pre := rc.Comp.Options.MediaPreprocessor; pre != nil && (tag == IRImg || tag == IRAudio) {
				processed, err := pre(rc.Comp.Context(), string(tag), src)
				if err != nil {
					return nil, err
				}
				src = processed
			}
			ir.Attrs.Set("src", src)
		}
		if alt := rc.Attr("alt", ""); alt != "" {
			ir.Attrs.Set("alt", alt)
		}
		ir.Attrs.Set("position", rc.Attr("position", "here"))
		ir.Children = rc.Children
		return ir, nil
	}
}

func renderObj(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRObj)
	applyCommonAttrs(ir, rc)
	if data, ok := rc.Attrs["data"]; ok {
		ir.Attrs.Set("data", data)
	}
	ir.Children = rc.Children
	return ir, nil
}

func renderAny(rc *RenderContext) (*IRNode, error) {
	ir := NewIRNode(IRAny)
	applyCommonAttrs(ir, rc)
	if t := rc.Attr("type", ""); t != "" {
		ir.Attrs.Set("type", t)
	}
	ir.Children = rc.Children
	return ir, nil
}

// envComponent builds the root-environment component (<poml> and the
// explicit <env> escape hatch for switching writer presentation
// mid-document; nested environments delegate back through the writer
// dispatcher).
func envComponent(name string) *Component {
	return &Component{
		Name:     name,
		IsPublic: true,
		Params: []ParamSpec{
			{Name: "syntax", Type: "string", Choices: []string{"markdown", "html", "csv", "tsv", "json", "yaml", "xml", "text", "multimedia"}, Default: "markdown"},
		},
		Render: func(rc *RenderContext) (*IRNode, error) {
			ir := NewIRNode(IREnv)
			applyCommonAttrs(ir, rc)
			syntax := rc.Attr("syntax", "markdown")
			presentation, lang := syntaxToEnv(syntax)
			ir.Attrs.Set(AttrPresentation, presentation)
			switch presentation {
			case "markup":
				ir.Attrs.Set(AttrMarkupLang, lang)
			case "serialize":
				ir.Attrs.Set(AttrSerializer, lang)
			}
			if rc.AttrBool("whiteSpace", false) || rc.Attr("whiteSpace", "") == "pre" {
				ir.Attrs.Set(AttrWhitespace, "pre")
			}
			ir.Children = rc.Children
			return ir, nil
		},
	}
}

// speakerComponent builds the <role>/<system>/<human>/<ai>/<tool> shorthand
// elements, which wrap their body in a paragraph carrying the given
// speaker, consumed later by the speaker assigner.
func speakerComponent(name, fixedSpeaker string) *Component {
	return &Component{
		Name:     name,
		IsPublic: true,
		Params:   []ParamSpec{{Name: "speaker", Type: "string", Choices: []string{"system", "human", "ai", "tool"}}},
		Render: func(rc *RenderContext) (*IRNode, error) {
			ir := NewIRNode(IRP)
			speaker := fixedSpeaker
			if speaker == "" {
				speaker = rc.Attr("speaker", "")
			}
			if speaker != "" {
				ir.Attrs.Set(AttrSpeaker, speaker)
			}
			applyCommonAttrs(ir, rc)
			ir.Children = rc.Children
			return ir, nil
		},
	}
}

func syntaxToEnv(syntax string) (presentation, lang string) {
	switch syntax {
	case "markdown":
		return "markup", "markdown"
	case "html":
		return "markup", "html"
	case "csv":
		return "markup", "csv"
	case "tsv":
		return "markup", "tsv"
	case "json":
		return "serialize", "json"
	case "yaml":
		return "serialize", "yaml"
	case "xml":
		return "serialize", "xml"
	case "text":
		return "free", ""
	case "multimedia":
		return "multimedia", ""
	default:
		return "markup", "markdown"
	}
}
