package poml

import (
	"encoding/json"
	"os"
	"strings"
)

// sideFilePaths returns the conventional context/stylesheet side-file
// paths for a source file: "foo.poml" -> "foo.context.json" /
// "foo.stylesheet.json" (the source extension is stripped, not just
// appended to).
func sideFilePaths(sourcePath string) (contextPath, stylesheetPath string) {
	base := strings.TrimSuffix(sourcePath, extOf(sourcePath))
	return base + ".context.json", base + ".stylesheet.json"
}

func extOf(path string) string {
	idx := strings.LastIndex(path, ".")
	slash := strings.LastIndexAny(path, "/\\")
	if idx < 0 || idx < slash {
		return ""
	}
	return path[idx:]
}

// LoadSideContext loads and JSON-decodes sourcePath's side-file context
// document, if one exists. A missing side file is not an error: it
// simply means the compile proceeds with whatever context the caller
// passed in directly.
func (o *Options) LoadSideContext(sourcePath string) (map[string]any, error) {
	contextPath, _ := sideFilePaths(sourcePath)
	data, err := o.tryLoad(contextPath)
	if err != nil || data == nil {
		return nil, err
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if decoded, ok := decodeJSONBuffers(v).(map[string]any); ok {
		return decoded, nil
	}
	return v, nil
}

// LoadSideStylesheet is LoadSideContext's stylesheet counterpart.
func (o *Options) LoadSideStylesheet(sourcePath string) (Stylesheet, error) {
	_, stylesheetPath := sideFilePaths(sourcePath)
	data, err := o.tryLoad(stylesheetPath)
	if err != nil || data == nil {
		return nil, err
	}
	var v Stylesheet
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (o *Options) tryLoad(path string) ([]byte, error) {
	loader := o.Loader
	if loader == nil {
		loader = os.ReadFile
	}
	data, err := loader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
