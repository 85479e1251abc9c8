// Package ir renders a sealed graph.Graph as the textual intermediate
// representation the compile pipeline's backend reads (Render: a header
// line and one line per node, in topological order). No constants, symbols
// or resources side tables are emitted; nodes refer to mappings, resources,
// tables and symbols by id only. It also provides a sequential reference
// interpreter (Interpret) that evaluates the same per-node semantics
// directly in Go, used by the compiler package whenever no backend
// toolchain is found.
package ir

import "fmt"

// RuntimeError is the error kind a compiled (or interpreted) call surfaces
// to the host after translating its status id through the status table
// (§7 RuntimeError).
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Message string
}

type RuntimeErrorKind uint8

const (
	KeyNotFound RuntimeErrorKind = iota
	OutOfBounds
	AssertionFailed
	ResourceError
	NumericError
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case KeyNotFound:
		return "key_not_found"
	case OutOfBounds:
		return "out_of_bounds"
	case AssertionFailed:
		return "assertion_failed"
	case ResourceError:
		return "resource_error"
	case NumericError:
		return "numeric_error"
	default:
		return "unknown"
	}
}

func (e *RuntimeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("runtime error: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Kind)
}
