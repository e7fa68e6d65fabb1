package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/traincheck/internal/registry"
	"github.com/example/traincheck/internal/validate"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return NewLoader(reg)
}

const validOptions = `
name: nanopet
model:
  cutoff: 5.0
  d_pet: 128
training:
  batch_size: 16
  learning_rate: 1.0e-4
  loss:
    type: mse
    reduction: mean
`

func TestParseValidOptions(t *testing.T) {
	result, err := newTestLoader(t).Parse([]byte(validOptions))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Architecture != "nanopet" {
		t.Errorf("expected architecture nanopet, got %s", result.Architecture)
	}
	if !result.Valid() {
		t.Fatalf("expected valid document, got violations: %v", result.Violations)
	}
}

func TestParseSurfacesViolations(t *testing.T) {
	options := `
name: nanopet
model:
  cutoff: 5.0
  cuttoff: 5.0
training:
  loss:
    reduction: avg
`
	result, err := newTestLoader(t).Parse([]byte(options))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Valid() {
		t.Fatal("expected violations")
	}
	if len(result.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(result.Violations), result.Violations)
	}
	kinds := map[validate.Kind]bool{}
	for _, v := range result.Violations {
		kinds[v.Kind] = true
	}
	if !kinds[validate.UnknownField] || !kinds[validate.InvalidEnumValue] {
		t.Errorf("expected unknown_field and invalid_enum_value, got %v", result.Violations)
	}
}

func TestParseCompositionWeights(t *testing.T) {
	options := `
name: nanopet
training:
  fixed_composition_weights:
    H:
      1: 0.5
      x: 1.0
`
	result, err := newTestLoader(t).Parse([]byte(options))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d: %v", len(result.Violations), result.Violations)
	}
	v := result.Violations[0]
	if v.Kind != validate.InvalidKeyFormat {
		t.Errorf("expected invalid_key_format, got %s", v.Kind)
	}
	if v.Path.String() != "training.fixed_composition_weights.H.x" {
		t.Errorf("unexpected path: %s", v.Path)
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	if _, err := newTestLoader(t).Parse([]byte("model: {}\n")); err == nil {
		t.Fatal("expected error for options without an architecture name")
	}
}

func TestParseRejectsUnknownArchitecture(t *testing.T) {
	_, err := newTestLoader(t).Parse([]byte("name: petmega\n"))
	if err == nil {
		t.Fatal("expected error for unknown architecture")
	}
	if !strings.Contains(err.Error(), "nanopet") {
		t.Errorf("error should list known architectures, got: %v", err)
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := newTestLoader(t).Parse([]byte("")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := newTestLoader(t).Parse([]byte("name: [unclosed\n")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte(validOptions), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := newTestLoader(t).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !result.Valid() {
		t.Errorf("expected valid document, got %v", result.Violations)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := newTestLoader(t).Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TRAINCHECK_TEST_BATCH", "32")
	options := `
name: nanopet
training:
  batch_size: ${TRAINCHECK_TEST_BATCH}
`
	result, err := newTestLoader(t).Parse([]byte(options))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("expected expanded value to validate, got %v", result.Violations)
	}
}

func TestUnsetEnvVarIsLeftVerbatim(t *testing.T) {
	options := `
name: nanopet
training:
  batch_size: ${TRAINCHECK_TEST_UNSET_VAR}
`
	result, err := newTestLoader(t).Parse([]byte(options))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// The unexpanded reference is a string where an integer is expected.
	if result.Valid() {
		t.Fatal("expected a violation for the unexpanded reference")
	}
	if result.Violations[0].Kind != validate.TypeMismatch {
		t.Errorf("expected type_mismatch, got %s", result.Violations[0].Kind)
	}
}
