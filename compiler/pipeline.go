package compiler

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/ir"
)

// RunFunc is a compiled function's call ABI: pointers to pre-allocated
// input/output buffers in, a status id out (§6 Call ABI). The caller owns
// both buffers' lifetime; RunFunc only reads in and writes out.
type RunFunc func(in, out []byte) (status int64)

// SymbolLoader maps a linked shared object and an exported symbol name to a
// callable RunFunc. The default implementation uses Go's plugin package,
// the idiomatic in-process dynamic loader (§4.5's "platform dynamic
// loader"); tests substitute a fake loader since the backend/assembler/
// linker stand-ins configured in a test can't produce a real Go-plugin
// shared object for plugin.Open to map.
type SymbolLoader interface {
	Load(soPath, symbol string) (RunFunc, error)
}

type pluginLoader struct{}

func (pluginLoader) Load(soPath, symbol string) (RunFunc, error) {
	plug, err := plugin.Open(soPath)
	if err != nil {
		return nil, &CompileError{Kind: SymbolMissing, Stage: "load", Stderr: err.Error()}
	}
	sym, err := plug.Lookup(symbol)
	if err != nil {
		return nil, &CompileError{Kind: SymbolMissing, Stage: "load", Stderr: err.Error()}
	}
	fn, ok := sym.(func(in, out []byte) (status int64))
	if !ok {
		return nil, &CompileError{Kind: SymbolMissing, Stage: "load", Stderr: "symbol has unexpected signature"}
	}
	return RunFunc(fn), nil
}

// CompileOptions configures the backend/assembler/linker subprocess chain
// (§4.5). Each of Backend/Assembler/Linker is an argv: argv[0] is the
// executable, the rest are fixed leading arguments; the pipeline appends
// the stage's input/output paths itself. This keeps the three external
// tools substitutable per a REDESIGN FLAGS note in spec.md §10, rather than
// hard-coding tool names.
type CompileOptions struct {
	Backend   []string
	Assembler []string
	Linker    []string
	Symbol    string
	Loader    SymbolLoader
}

// DefaultCompileOptions resolves the three subprocess commands from
// JYAFN_BACKEND/JYAFN_AS/JYAFN_CC, falling back to common toolchain names.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		Backend:   []string{envOrDefault("JYAFN_BACKEND", "jyafn-backend")},
		Assembler: []string{envOrDefault("JYAFN_AS", "as")},
		Linker:    []string{envOrDefault("JYAFN_CC", "cc"), "-shared", "-lm"},
		Symbol:    "jyafn_run",
		Loader:    pluginLoader{},
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Compile renders g to IR text and drives it through the backend (IR text
// in, assembly out on stdout), the assembler (assembly file in, object
// file out) and the linker (object file in, shared object out), then
// resolves opts.Symbol through opts.Loader. The temp directory holding
// every intermediate artifact is removed before Compile returns, win or
// lose — by the time the directory disappears the shared object has
// already been mapped into the process by the loader, so the mapping
// survives (§4.5's "temp directory deleted on drop regardless of success").
func Compile(g *graph.Graph, resources ir.ResourceHandles, opts CompileOptions) (*Function, error) {
	if opts.Symbol == "" {
		opts.Symbol = "jyafn_run"
	}
	if opts.Loader == nil {
		opts.Loader = pluginLoader{}
	}

	dir, err := os.MkdirTemp("", "jyafn-compile-*")
	if err != nil {
		return nil, &CompileError{Kind: BackendFailed, Stage: "tempdir", Stderr: err.Error()}
	}
	defer os.RemoveAll(dir)

	irText := ir.Render(g)

	asmOut, stderr, err := runStage(opts.Backend, irText)
	if err != nil {
		return nil, &CompileError{Kind: BackendFailed, Stage: "backend", Stderr: stderr}
	}

	asmPath := filepath.Join(dir, "jyafn.s")
	if err := os.WriteFile(asmPath, []byte(asmOut), 0o644); err != nil {
		return nil, &CompileError{Kind: BackendFailed, Stage: "backend", Stderr: err.Error()}
	}

	objPath := filepath.Join(dir, "jyafn.o")
	asArgv := append(append([]string{}, opts.Assembler...), asmPath, "-o", objPath)
	if _, stderr, err := runStage(asArgv, ""); err != nil {
		return nil, &CompileError{Kind: AssemblerFailed, Stage: "assembler", Stderr: stderr}
	}

	soPath := filepath.Join(dir, "jyafn.so")
	ldArgv := append(append([]string{}, opts.Linker...), objPath, "-o", soPath)
	if _, stderr, err := runStage(ldArgv, ""); err != nil {
		return nil, &CompileError{Kind: LinkerFailed, Stage: "linker", Stderr: stderr}
	}

	run, err := opts.Loader.Load(soPath, opts.Symbol)
	if err != nil {
		return nil, err
	}

	return newFunction(g, run, resources), nil
}

// NewInterpretedFunction builds a Function backed directly by ir.Interpret,
// skipping the backend/assembler/linker pipeline. It is the fallback
// CompileOrInterpret uses when no backend toolchain is configured, and the
// path compiler package tests use to exercise Function/BatchEvalRaw without
// a real native toolchain on the test machine.
func NewInterpretedFunction(g *graph.Graph, resources ir.ResourceHandles) *Function {
	run := func(in, out []byte) (status int64) {
		output, status, err := ir.Interpret(g, in, resources)
		if err != nil {
			panic(err)
		}
		copy(out, output)
		return status
	}
	return newFunction(g, run, resources)
}

// CompileOrInterpret runs the real pipeline when opts.Backend's executable
// is found on PATH, and falls back to NewInterpretedFunction otherwise —
// so a host without a native backend installed still gets a working
// Function, at interpreter rather than machine-code speed.
func CompileOrInterpret(g *graph.Graph, resources ir.ResourceHandles, opts CompileOptions) (*Function, error) {
	if len(opts.Backend) == 0 {
		opts = DefaultCompileOptions()
	}
	if _, err := exec.LookPath(opts.Backend[0]); err != nil {
		return NewInterpretedFunction(g, resources), nil
	}
	return Compile(g, resources, opts)
}

// runStage invokes argv[0] with argv[1:], feeding stdin and capturing
// stdout/stderr. A nonzero exit or spawn failure surfaces stderr (or the
// spawn error text when the process never produced output) to the caller.
func runStage(argv []string, stdin string) (stdout, stderr string, err error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		detail := errBuf.String()
		if detail == "" {
			detail = err.Error()
		}
		return "", detail, err
	}
	return outBuf.String(), errBuf.String(), nil
}
