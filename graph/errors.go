package graph

import "fmt"

// BuildError is the error kind the builder returns for contract violations
// while appending nodes (§7 BuildError). Cycle cannot occur by construction
// (the builder only ever references already-pushed node ids); a caller that
// somehow requests one gets Programmatic instead, signalling a bug in the
// caller rather than a data problem.
type BuildError struct {
	Kind   BuildErrorKind
	Detail string
}

type BuildErrorKind uint8

const (
	ArityMismatch BuildErrorKind = iota
	TypeMismatch
	UnknownRef
	UnknownResource
	UnknownMethod
	UnknownMapping
	Programmatic
)

func (k BuildErrorKind) String() string {
	switch k {
	case ArityMismatch:
		return "arity_mismatch"
	case TypeMismatch:
		return "type_mismatch"
	case UnknownRef:
		return "unknown_ref"
	case UnknownResource:
		return "unknown_resource"
	case UnknownMethod:
		return "unknown_method"
	case UnknownMapping:
		return "unknown_mapping"
	case Programmatic:
		return "programmatic"
	default:
		return "unknown"
	}
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build error: %s: %s", e.Kind, e.Detail)
}

func errf(kind BuildErrorKind, format string, args ...any) error {
	return &BuildError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
