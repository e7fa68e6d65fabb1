// Package registry holds the compiled schema tree for every known model
// architecture. A registry is built once, before validation begins, and is
// read-only afterwards, so one instance can serve concurrent validations.
package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/example/traincheck/internal/schema"
)

//go:embed schemas/*.json
var defaultSchemas embed.FS

// Registry maps architecture names to their compiled root schema nodes.
type Registry struct {
	schemas map[string]*schema.Node
}

// Default builds a registry from the schema documents shipped with the
// binary.
func Default() (*Registry, error) {
	return fromFS(defaultSchemas, "schemas")
}

// LoadDir builds a registry from every *.json schema document in dir. The
// architecture name is the file name without extension.
func LoadDir(dir string) (*Registry, error) {
	return fromFS(os.DirFS(dir), ".")
}

func fromFS(fsys fs.FS, root string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	r := &Registry{schemas: make(map[string]*schema.Node)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")

		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("architecture %s: failed to read schema: %w", name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("architecture %s: failed to parse schema document: %w", name, err)
		}
		node, err := schema.Compile(doc)
		if err != nil {
			return nil, fmt.Errorf("architecture %s: %w", name, err)
		}
		r.schemas[name] = node
	}

	if len(r.schemas) == 0 {
		return nil, fmt.Errorf("no architecture schemas found")
	}
	return r, nil
}

// Schema returns the compiled schema for an architecture. Lookups are
// case-sensitive exact matches.
func (r *Registry) Schema(name string) (*schema.Node, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered architecture names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
