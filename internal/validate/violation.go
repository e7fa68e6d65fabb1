package validate

import (
	"strconv"
	"strings"
)

// Kind classifies one way a document can fail to conform.
type Kind string

const (
	TypeMismatch         Kind = "type_mismatch"
	InvalidEnumValue     Kind = "invalid_enum_value"
	UnknownField         Kind = "unknown_field"
	MissingRequiredField Kind = "missing_required_field"
	InvalidKeyFormat     Kind = "invalid_key_format"
	NoMatchingVariant    Kind = "no_matching_variant"
)

// Path locates a value in a document, one segment per map key or sequence
// index, from the root down. Paths are copied when recorded so later
// traversal never aliases a recorded violation.
type Path []string

// Child returns a new path extended with a map key.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Index returns a new path extended with a sequence index.
func (p Path) Index(i int) Path {
	return p.Child(strconv.Itoa(i))
}

// String renders the path in dotted form, e.g. "training.loss.reduction".
// The empty path (the document root) renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return strings.Join(p, ".")
}

// Violation is one discrete, localized conformance failure. Violations are
// immutable once recorded; a validation run returns them in document
// traversal order.
type Violation struct {
	Path    Path   `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// Causes carries, for no_matching_variant only, the sub-violations of
	// the closest alternative, each with its full path into the document.
	Causes []Violation `json:"causes,omitempty"`
}

// String renders the violation as "<path>: <kind>: <message>".
func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(v.Path.String())
	b.WriteString(": ")
	b.WriteString(string(v.Kind))
	b.WriteString(": ")
	b.WriteString(v.Message)
	return b.String()
}
