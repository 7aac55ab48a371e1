package poml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"
	"github.com/kr/pretty"
)

// TraceDump is the {id}.trace.json payload the CLI's --trace-dir writes
// out: a snapshot of the failed text-interpolation expressions of a
// compile, keyed by their text node's source span, plus the recorded
// compile errors. Successful evaluations are not in the trace.
type TraceDump struct {
	ID      string           `json:"id"`
	Source  string           `json:"source"`
	Entries []TraceDumpEntry `json:"entries"`
	Errors  []string         `json:"errors,omitempty"`
}

// TraceDumpEntry is one expression evaluation outcome, pretty-printed
// with github.com/kr/pretty so nested values (maps, slices) are legible
// instead of Go's default %v rendering.
type TraceDumpEntry struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Expression string `json:"expression"`
	Value      string `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WriteTrace serializes c's accumulated Trace map and Errors to
// dir/{id}.trace.json, minting a fresh v4 UUID for id, and returns the
// path written.
func (c *Compilation) WriteTrace(dir string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	dump := TraceDump{ID: id.String(), Source: c.SourcePath}
	for span, entry := range c.Trace {
		d := TraceDumpEntry{Start: span.Start, End: span.End, Expression: entry.Expression}
		if entry.Err != nil {
			d.Error = entry.Err.Error()
		} else {
			d.Value = fmt.Sprintf("%# v", pretty.Formatter(entry.Result))
		}
		dump.Entries = append(dump.Entries, d)
	}
	for _, e := range c.Errors {
		dump.Errors = append(dump.Errors, e.Error())
	}

	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, id.String()+".trace.json")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
