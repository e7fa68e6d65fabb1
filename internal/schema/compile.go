package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Compile builds a Node tree from an already-parsed, JSON-Schema-like
// architecture schema document. Only the vocabulary these documents
// actually use is supported: type, enum, properties, required,
// additionalProperties, patternProperties, items, anyOf and oneOf. Any
// other keyword is a compile error naming the offending location, so a
// typo in a schema document fails loudly instead of silently validating
// nothing.
//
// After conversion the raw document is also compiled by the jsonschema
// library as a well-formedness check, so structural mistakes the converter
// does not look for still fail with the library's diagnostics.
func Compile(doc map[string]any) (*Node, error) {
	node, err := compileNode(doc, "$")
	if err != nil {
		return nil, err
	}
	if err := checkWellFormed(doc); err != nil {
		return nil, fmt.Errorf("schema document is not valid JSON Schema: %w", err)
	}
	return node, nil
}

// checkWellFormed round-trips the document through JSON and compiles it
// with the jsonschema compiler.
func checkWellFormed(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize schema document: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("failed to normalize schema document: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", normalized); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	if _, err := c.Compile("schema.json"); err != nil {
		return err
	}
	return nil
}

// supportedKeywords is the closed keyword vocabulary. Annotation keywords
// carry no structural meaning and are skipped.
var supportedKeywords = map[string]bool{
	"type": true, "enum": true, "properties": true, "required": true,
	"additionalProperties": true, "patternProperties": true, "items": true,
	"anyOf": true, "oneOf": true,
	// annotations
	"title": true, "description": true, "default": true, "examples": true,
	"$schema": true, "$id": true,
}

func compileNode(doc map[string]any, at string) (*Node, error) {
	for kw := range doc {
		if !supportedKeywords[kw] {
			return nil, fmt.Errorf("%s: unsupported keyword %q", at, kw)
		}
	}

	if alts, ok := firstOf(doc, "anyOf", "oneOf"); ok {
		return compileUnion(alts, at)
	}
	if _, ok := doc["enum"]; ok {
		return compileEnum(doc, at)
	}

	typ, ok := doc["type"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: missing or non-string \"type\"", at)
	}
	switch typ {
	case "integer":
		return Scalar(Integer), nil
	case "number":
		return Scalar(Number), nil
	case "boolean":
		return Scalar(Boolean), nil
	case "string":
		return Scalar(String), nil
	case "array":
		return compileSequence(doc, at)
	case "object":
		return compileObject(doc, at)
	}
	return nil, fmt.Errorf("%s: unsupported type %q", at, typ)
}

func firstOf(doc map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func compileUnion(alts any, at string) (*Node, error) {
	list, ok := alts.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s: anyOf must be a non-empty array", at)
	}
	nodes := make([]*Node, 0, len(list))
	for i, raw := range list {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.anyOf.%d: alternative must be an object", at, i)
		}
		n, err := compileNode(sub, fmt.Sprintf("%s.anyOf.%d", at, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return Union(nodes...), nil
}

func compileEnum(doc map[string]any, at string) (*Node, error) {
	list, ok := doc["enum"].([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s: enum must be a non-empty array", at)
	}
	kind, err := enumKind(doc, list, at)
	if err != nil {
		return nil, err
	}
	return Enum(kind, list...), nil
}

// enumKind takes the declared type when present and infers it from the
// first literal otherwise.
func enumKind(doc map[string]any, list []any, at string) (ScalarKind, error) {
	if typ, ok := doc["type"].(string); ok {
		switch typ {
		case "integer":
			return Integer, nil
		case "number":
			return Number, nil
		case "boolean":
			return Boolean, nil
		case "string":
			return String, nil
		}
		return "", fmt.Errorf("%s: enum with non-scalar type %q", at, typ)
	}
	switch list[0].(type) {
	case string:
		return String, nil
	case bool:
		return Boolean, nil
	case float32, float64:
		return Number, nil
	case int, int64, uint64:
		return Integer, nil
	}
	return "", fmt.Errorf("%s: cannot infer enum type from literal %v", at, list[0])
}

func compileSequence(doc map[string]any, at string) (*Node, error) {
	items, ok := doc["items"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: array requires an object \"items\"", at)
	}
	item, err := compileNode(items, at+".items")
	if err != nil {
		return nil, err
	}
	return Sequence(item), nil
}

func compileObject(doc map[string]any, at string) (*Node, error) {
	props, hasProps := doc["properties"].(map[string]any)
	patterns, hasPatterns := doc["patternProperties"].(map[string]any)

	if hasProps && hasPatterns {
		return nil, fmt.Errorf("%s: properties and patternProperties on the same object are not supported", at)
	}

	if hasPatterns {
		return compilePatternMap(patterns, at)
	}

	// additionalProperties with a schema is a map of arbitrary keys.
	if sub, ok := doc["additionalProperties"].(map[string]any); ok && !hasProps {
		value, err := compileNode(sub, at+".additionalProperties")
		if err != nil {
			return nil, err
		}
		return PatternMap(NonEmptyKey, value), nil
	}

	required := make(map[string]bool)
	if raw, ok := doc["required"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: required must be an array", at)
		}
		for _, r := range list {
			name, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("%s: required entries must be strings", at)
			}
			required[name] = true
		}
	}

	// Parsed documents lose property order, so fields are declared in
	// sorted name order to keep compiled trees and reports deterministic.
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		sub, ok := props[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.properties.%s: property schema must be an object", at, name)
		}
		child, err := compileNode(sub, at+".properties."+name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Schema: child, Required: required[name]})
		delete(required, name)
	}
	for name := range required {
		return nil, fmt.Errorf("%s: required field %q is not declared in properties", at, name)
	}

	node := Object(fields...)
	if open, ok := doc["additionalProperties"].(bool); ok && open {
		node.AllowUnknown = true
	}
	return node, nil
}

func compilePatternMap(patterns map[string]any, at string) (*Node, error) {
	if len(patterns) != 1 {
		return nil, fmt.Errorf("%s: exactly one patternProperties entry is supported, got %d", at, len(patterns))
	}
	for expr, raw := range patterns {
		sub, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.patternProperties.%s: value schema must be an object", at, expr)
		}
		value, err := compileNode(sub, at+".patternProperties."+expr)
		if err != nil {
			return nil, err
		}
		return PatternMap(keyPatternFor(expr), value), nil
	}
	return nil, nil // unreachable
}

// keyPatternFor names the well-known key constraints so violation messages
// read as intent rather than regex source.
func keyPatternFor(expr string) KeyPattern {
	switch expr {
	case "^[0-9]+$", "[0-9]+":
		return DigitsKey
	case "^.+$", ".+", ".*", "^.*$":
		return NonEmptyKey
	}
	return NewKeyPattern(expr, trimAnchors(expr))
}

func trimAnchors(expr string) string {
	if len(expr) > 0 && expr[0] == '^' {
		expr = expr[1:]
	}
	if len(expr) > 0 && expr[len(expr)-1] == '$' {
		expr = expr[:len(expr)-1]
	}
	return expr
}
