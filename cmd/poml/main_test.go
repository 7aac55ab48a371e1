package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriterByNameKnownWriters(t *testing.T) {
	for _, name := range []string{"markdown", "html", "csv", "tsv", "json", "yaml", "xml", "free", "multimedia"} {
		if _, err := writerByName(name); err != nil {
			t.Errorf("writerByName(%q) returned an error: %v", name, err)
		}
	}
}

func TestWriterByNameUnknown(t *testing.T) {
	if _, err := writerByName("not-a-writer"); err == nil {
		t.Errorf("expected an error for an unrecognized writer name")
	}
}

func TestContextVarsSetAccumulates(t *testing.T) {
	flags := contextVars{}
	if err := flags.Set("name=Ada"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := flags.Set("role=engineer"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if flags["name"] != "Ada" || flags["role"] != "engineer" {
		t.Errorf("expected both repeated flags to accumulate, got %+v", flags)
	}
}

func TestContextVarsSetRejectsMissingEquals(t *testing.T) {
	flags := contextVars{}
	if err := flags.Set("justaname"); err == nil {
		t.Errorf("expected an error for a flag with no '=' separator")
	}
}

func TestResolveContextFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "context.json")
	if err := os.WriteFile(path, []byte(`{"name":"from-file","age":30}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	flags := contextVars{"name": "from-flag"}

	vars, err := resolveContext(flags, path)
	if err != nil {
		t.Fatalf("resolveContext: %v", err)
	}
	if vars["name"] != "from-flag" {
		t.Errorf("repeated -context flag should override the file's value, got %v", vars["name"])
	}
	if vars["age"] != float64(30) {
		t.Errorf("expected context-file's own key to survive the overlay, got %+v", vars["age"])
	}
}
