// Package schema defines the node vocabulary that training option
// documents are validated against: typed scalars, enums, closed objects,
// pattern-keyed maps, sequences, and discriminated unions. Nodes are pure
// data, built once per architecture and never mutated afterwards, so a
// single tree can back any number of concurrent validations.
package schema

import "regexp"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindScalar Kind = iota
	KindEnum
	KindObject
	KindPatternMap
	KindSequence
	KindUnion
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindPatternMap:
		return "pattern_map"
	case KindSequence:
		return "sequence"
	case KindUnion:
		return "union"
	}
	return "unknown"
}

// ScalarKind is the expected runtime type of a leaf value.
type ScalarKind string

const (
	Integer ScalarKind = "integer"
	Number  ScalarKind = "number" // accepts both integers and floats
	Boolean ScalarKind = "boolean"
	String  ScalarKind = "string"
)

// Field is one declared entry of a fixed object.
type Field struct {
	Name     string
	Schema   *Node
	Required bool
}

// KeyPattern constrains the keys of a pattern-keyed map. The name is used
// in violation messages; the expression is anchored at compile time.
type KeyPattern struct {
	Name string
	re   *regexp.Regexp
}

// Match reports whether the key satisfies the pattern.
func (p KeyPattern) Match(key string) bool {
	return p.re.MatchString(key)
}

// NonEmptyKey matches any non-empty string key.
var NonEmptyKey = KeyPattern{Name: "non-empty string", re: regexp.MustCompile(`^.+$`)}

// DigitsKey matches keys made of decimal digits only, such as atomic
// numbers used in composition-weight maps.
var DigitsKey = KeyPattern{Name: "digits only", re: regexp.MustCompile(`^[0-9]+$`)}

// NewKeyPattern compiles a custom key pattern. The expression is anchored
// to the full key. Invalid expressions panic, mirroring regexp.MustCompile,
// since patterns are fixed at schema-construction time.
func NewKeyPattern(name, expr string) KeyPattern {
	return KeyPattern{Name: name, re: regexp.MustCompile(`^(?:` + expr + `)$`)}
}

// Node describes one expected shape in a document. Exactly the fields for
// its Kind are populated; all other fields are zero. Nodes carry no
// behavior beyond self-description — traversal lives in the validate
// package.
type Node struct {
	Kind Kind

	// Scalar and Enum
	Scalar  ScalarKind
	Allowed []any // Enum only, in declaration order

	// Object
	Fields       []Field // declaration order
	AllowUnknown bool

	// PatternMap
	Key   KeyPattern
	Value *Node

	// Sequence
	Item *Node

	// Union
	Alternatives []*Node // declaration order
}

// Scalar returns a typed leaf node.
func Scalar(kind ScalarKind) *Node {
	return &Node{Kind: KindScalar, Scalar: kind}
}

// Enum returns a scalar node restricted to the given literal values.
func Enum(kind ScalarKind, allowed ...any) *Node {
	return &Node{Kind: KindEnum, Scalar: kind, Allowed: allowed}
}

// Object returns a fixed-field object node. Closed by default: keys outside
// the declared set are violations.
func Object(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: fields}
}

// OpenObject returns an object node that silently skips undeclared keys.
func OpenObject(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: fields, AllowUnknown: true}
}

// Optional declares a field that may be absent.
func Optional(name string, s *Node) Field {
	return Field{Name: name, Schema: s}
}

// Required declares a field that must be present.
func Required(name string, s *Node) Field {
	return Field{Name: name, Schema: s, Required: true}
}

// PatternMap returns a map node whose keys must match the pattern and whose
// values must each satisfy the value schema. Value schemas may themselves
// be pattern maps, giving arbitrarily nested keyed maps.
func PatternMap(key KeyPattern, value *Node) *Node {
	return &Node{Kind: KindPatternMap, Key: key, Value: value}
}

// Sequence returns a list node whose elements must satisfy the item schema.
func Sequence(item *Node) *Node {
	return &Node{Kind: KindSequence, Item: item}
}

// Union returns a node matched by any one of the alternatives. Alternative
// order is significant: it is the tie-break used when no alternative
// matches and a best attempt must be chosen for reporting.
func Union(alternatives ...*Node) *Node {
	return &Node{Kind: KindUnion, Alternatives: alternatives}
}

// FieldSchema returns the schema of the named declared field, or nil.
func (n *Node) FieldSchema(name string) *Node {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}
