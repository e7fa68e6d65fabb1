package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/traincheck/internal/schema"
)

func TestDefaultRegistryContainsShippedArchitectures(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, name := range []string{"nanopet", "soap_bpnn"} {
		node, ok := reg.Schema(name)
		if !ok {
			t.Fatalf("missing architecture %s", name)
		}
		if node.Kind != schema.KindObject {
			t.Errorf("%s: root must be an object, got %v", name, node.Kind)
		}
	}
}

func TestDefaultSchemasDeclareTopLevelSections(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	node, _ := reg.Schema("nanopet")
	for _, field := range []string{"name", "model", "training"} {
		if node.FieldSchema(field) == nil {
			t.Errorf("nanopet schema must declare %s", field)
		}
	}
	if node.AllowUnknown {
		t.Error("architecture roots must be closed objects")
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if _, ok := reg.Schema("NanoPET"); ok {
		t.Error("lookups must be case-sensitive exact matches")
	}
	if _, ok := reg.Schema("unknown"); ok {
		t.Error("unknown architecture must not resolve")
	}
}

func TestNamesAreSorted(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	names := reg.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"type": "object",
		"additionalProperties": false,
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "enum": ["toy"]},
			"model": {"type": "object", "properties": {"width": {"type": "integer"}}}
		}
	}`
	if err := os.WriteFile(filepath.Join(dir, "toy.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-JSON files are ignored
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# schemas"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if _, ok := reg.Schema("toy"); !ok {
		t.Error("expected toy architecture from file name")
	}
	if got := reg.Names(); len(got) != 1 {
		t.Errorf("expected exactly one architecture, got %v", got)
	}
}

func TestLoadDirRejectsBadSchema(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"type": "wormhole"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected error for unsupported schema type")
	}
}

func TestLoadDirRejectsEmptyDir(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without schemas")
	}
}
