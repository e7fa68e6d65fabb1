// Package validate walks a parsed configuration document against a schema
// tree and reports every structural violation with an exact path. A single
// pass collects all problems: traversal never stops at the first failure,
// so one run surfaces everything wrong with a document at once.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/traincheck/internal/schema"
)

// Validate checks doc against root and returns every violation in document
// traversal order: declared object fields in declaration order, sequence
// elements by index, map keys lexicographically. The returned slice is
// empty (nil) exactly when doc conforms.
//
// Validate never mutates doc or root and allocates its own result, so
// concurrent calls may share one schema tree. A nil or cyclic schema is a
// caller bug and panics rather than producing a report.
func Validate(doc any, root *schema.Node) []Violation {
	if root == nil {
		panic("validate: nil schema")
	}
	checkAcyclic(root, make(map[*schema.Node]bool))

	var out []Violation
	walk(doc, root, nil, &out)
	return out
}

// checkAcyclic panics if the schema tree references itself. The node
// vocabulary has no recursion, so a cycle can only come from a bug in
// schema construction, and letting it through would make traversal of a
// deep enough document spin forever.
func checkAcyclic(n *schema.Node, onPath map[*schema.Node]bool) {
	if n == nil {
		panic("validate: schema tree contains a nil node")
	}
	if onPath[n] {
		panic("validate: schema tree contains a cycle")
	}
	onPath[n] = true
	for _, f := range n.Fields {
		checkAcyclic(f.Schema, onPath)
	}
	if n.Value != nil {
		checkAcyclic(n.Value, onPath)
	}
	if n.Item != nil {
		checkAcyclic(n.Item, onPath)
	}
	for _, alt := range n.Alternatives {
		checkAcyclic(alt, onPath)
	}
	delete(onPath, n)
}

func walk(value any, n *schema.Node, path Path, out *[]Violation) {
	switch n.Kind {
	case schema.KindScalar:
		walkScalar(value, n, path, out)
	case schema.KindEnum:
		walkEnum(value, n, path, out)
	case schema.KindObject:
		walkObject(value, n, path, out)
	case schema.KindPatternMap:
		walkPatternMap(value, n, path, out)
	case schema.KindSequence:
		walkSequence(value, n, path, out)
	case schema.KindUnion:
		walkUnion(value, n, path, out)
	default:
		panic(fmt.Sprintf("validate: unknown schema node kind %d", n.Kind))
	}
}

func walkScalar(value any, n *schema.Node, path Path, out *[]Violation) {
	if !scalarMatches(n.Scalar, value) {
		record(out, Violation{
			Path:    clone(path),
			Kind:    TypeMismatch,
			Message: fmt.Sprintf("expected %s, got %s", n.Scalar, typeName(value)),
		})
	}
}

func walkEnum(value any, n *schema.Node, path Path, out *[]Violation) {
	if !scalarMatches(n.Scalar, value) {
		record(out, Violation{
			Path:    clone(path),
			Kind:    TypeMismatch,
			Message: fmt.Sprintf("expected %s, got %s", n.Scalar, typeName(value)),
		})
		return
	}
	for _, allowed := range n.Allowed {
		if literalEqual(value, allowed) {
			return
		}
	}
	record(out, Violation{
		Path:    clone(path),
		Kind:    InvalidEnumValue,
		Message: fmt.Sprintf("value %v is not one of %s", value, formatAllowed(n.Allowed)),
	})
}

func walkObject(value any, n *schema.Node, path Path, out *[]Violation) {
	m, ok := asMapping(value)
	if !ok {
		record(out, Violation{
			Path:    clone(path),
			Kind:    TypeMismatch,
			Message: fmt.Sprintf("expected mapping, got %s", typeName(value)),
		})
		return
	}

	declared := make(map[string]bool, len(n.Fields))
	for _, f := range n.Fields {
		declared[f.Name] = true
		child, present := m[f.Name]
		switch {
		case present:
			walk(child, f.Schema, path.Child(f.Name), out)
		case f.Required:
			record(out, Violation{
				Path:    path.Child(f.Name),
				Kind:    MissingRequiredField,
				Message: fmt.Sprintf("required field %q is missing", f.Name),
			})
		}
	}

	if n.AllowUnknown {
		return
	}
	// Parsed mappings are unordered, so undeclared keys are reported in
	// sorted order to keep reports stable across runs.
	for _, key := range sortedKeys(m) {
		if !declared[key] {
			record(out, Violation{
				Path:    path.Child(key),
				Kind:    UnknownField,
				Message: fmt.Sprintf("unknown field %q", key),
			})
		}
	}
}

func walkPatternMap(value any, n *schema.Node, path Path, out *[]Violation) {
	m, ok := asMapping(value)
	if !ok {
		record(out, Violation{
			Path:    clone(path),
			Kind:    TypeMismatch,
			Message: fmt.Sprintf("expected mapping, got %s", typeName(value)),
		})
		return
	}

	for _, key := range sortedKeys(m) {
		entry := path.Child(key)
		if !n.Key.Match(key) {
			record(out, Violation{
				Path:    entry,
				Kind:    InvalidKeyFormat,
				Message: fmt.Sprintf("key %q does not match expected format: %s", key, n.Key.Name),
			})
		}
		// The value is checked even when the key is malformed, so one pass
		// reports both problems on the same entry.
		walk(m[key], n.Value, entry, out)
	}
}

func walkSequence(value any, n *schema.Node, path Path, out *[]Violation) {
	items, ok := value.([]any)
	if !ok {
		record(out, Violation{
			Path:    clone(path),
			Kind:    TypeMismatch,
			Message: fmt.Sprintf("expected sequence, got %s", typeName(value)),
		})
		return
	}
	for i, item := range items {
		walk(item, n.Item, path.Index(i), out)
	}
}

// walkUnion tries every alternative independently. If one matches cleanly
// the union is satisfied. Otherwise a single no_matching_variant violation
// is recorded, carrying the sub-violations of the closest alternative: the
// one with the fewest violations, ties broken by declaration order. This
// points the user at the most plausible intended variant instead of
// flooding the report with every failed branch.
func walkUnion(value any, n *schema.Node, path Path, out *[]Violation) {
	var best []Violation
	bestSet := false
	for _, alt := range n.Alternatives {
		var attempt []Violation
		walk(value, alt, path, &attempt)
		if len(attempt) == 0 {
			return
		}
		if !bestSet || len(attempt) < len(best) {
			best = attempt
			bestSet = true
		}
	}
	record(out, Violation{
		Path: clone(path),
		Kind: NoMatchingVariant,
		Message: fmt.Sprintf("value does not match any of %d allowed forms; closest form fails with: %s",
			len(n.Alternatives), summarize(best)),
		Causes: best,
	})
}

func record(out *[]Violation, v Violation) {
	*out = append(*out, v)
}

func clone(p Path) Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// asMapping normalizes the mapping representations produced by JSON and
// YAML parsers. YAML permits non-string keys (bare atomic numbers parse as
// integers), so keys are rendered to strings.
func asMapping(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

// scalarMatches reports whether the runtime type of value satisfies the
// declared scalar kind. Integers satisfy number, but floats never satisfy
// integer. Explicit null satisfies nothing: a field set to null is a type
// mismatch, not an absent field.
func scalarMatches(kind schema.ScalarKind, value any) bool {
	switch kind {
	case schema.Boolean:
		_, ok := value.(bool)
		return ok
	case schema.String:
		_, ok := value.(string)
		return ok
	case schema.Integer:
		return isInteger(value)
	case schema.Number:
		return isInteger(value) || isFloat(value)
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

func isFloat(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

// typeName names the runtime type of a parsed value for messages.
func typeName(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return "integer"
		}
		return "float"
	case []any:
		return "sequence"
	case map[string]any, map[any]any:
		return "mapping"
	}
	return fmt.Sprintf("%T", value)
}

// literalEqual compares a document value against a declared enum literal.
// Numeric literals compare by value across integer widths.
func literalEqual(value, allowed any) bool {
	if av, aok := numericValue(value); aok {
		if bv, bok := numericValue(allowed); bok {
			return av == bv
		}
		return false
	}
	return value == allowed
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatAllowed(allowed []any) string {
	s := "["
	for i, v := range allowed {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%v", v)
	}
	return s + "]"
}

func summarize(violations []Violation) string {
	if len(violations) == 0 {
		return "no details"
	}
	s := violations[0].String()
	if len(violations) > 1 {
		s += fmt.Sprintf(" (and %d more)", len(violations)-1)
	}
	return s
}
