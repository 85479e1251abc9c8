package compiler

import "fmt"

// CompileErrorKind classifies a failure in the backend/assembler/linker
// pipeline (§4.5, §9 CompileError).
type CompileErrorKind uint8

const (
	BackendFailed CompileErrorKind = iota
	AssemblerFailed
	LinkerFailed
	SymbolMissing
)

func (k CompileErrorKind) String() string {
	switch k {
	case BackendFailed:
		return "backend_failed"
	case AssemblerFailed:
		return "assembler_failed"
	case LinkerFailed:
		return "linker_failed"
	case SymbolMissing:
		return "symbol_missing"
	default:
		return "unknown"
	}
}

// CompileError reports which pipeline stage failed and the subprocess's
// captured stderr (or, for the load stage, the dynamic loader's error).
type CompileError struct {
	Kind   CompileErrorKind
	Stage  string
	Stderr string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile: %s stage %q failed: %s", e.Kind, e.Stage, e.Stderr)
}
