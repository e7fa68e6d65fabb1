// Package config loads user-supplied training option files and runs them
// through schema validation before anything expensive starts. Parsing
// failures (unreadable file, bad YAML, no usable architecture name) are
// errors; structural failures are violations in the returned result, so a
// caller sees every problem with a document in one pass.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/example/traincheck/internal/registry"
	"github.com/example/traincheck/internal/validate"
)

// Loader parses and validates training option documents.
type Loader struct {
	registry   *registry.Registry
	envPattern *regexp.Regexp
}

// Result is the outcome of loading one options document.
type Result struct {
	Architecture string
	Document     map[string]any
	Violations   []validate.Violation
}

// Valid reports whether the document fully conforms to its schema.
func (r *Result) Valid() bool {
	return len(r.Violations) == 0
}

// NewLoader creates a loader that resolves architectures against reg.
func NewLoader(reg *registry.Registry) *Loader {
	return &Loader{
		registry:   reg,
		envPattern: regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`),
	}
}

// Load reads and validates an options file.
func (l *Loader) Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates options from YAML bytes. JSON is a subset of YAML, so
// JSON documents work unchanged.
func (l *Loader) Parse(data []byte) (*Result, error) {
	expanded := l.expandEnvVars(string(data))

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("options document is empty")
	}

	arch, ok := doc["name"].(string)
	if !ok || arch == "" {
		return nil, fmt.Errorf("options document must declare an architecture name")
	}

	root, ok := l.registry.Schema(arch)
	if !ok {
		return nil, fmt.Errorf("unknown architecture %q (known: %s)",
			arch, strings.Join(l.registry.Names(), ", "))
	}

	return &Result{
		Architecture: arch,
		Document:     doc,
		Violations:   validate.Validate(doc, root),
	}, nil
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as-is so the reference shows up in violation
// messages instead of silently becoming an empty string.
func (l *Loader) expandEnvVars(input string) string {
	return l.envPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}
