package compiler_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/jyafn/compiler"
	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/ops"
)

func buildAddGraph(t *testing.T) *graph.Graph {
	t.Helper()
	inputLayout := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "y", Layout: layout.NewScalar()},
	)
	b, err := graph.New(inputLayout)
	require.NoError(t, err)

	x, err := b.PushInput("x")
	require.NoError(t, err)
	y, err := b.PushInput("y")
	require.NoError(t, err)
	sum, err := b.PushOp(ops.Add, []graph.NodeID{x, y}, nil)
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("result", sum))
	b.SetOutputLayout(layout.NewScalar())

	g, err := b.Seal()
	require.NoError(t, err)
	return g
}

// stubLoader verifies the linker actually produced soPath before handing
// back a RunFunc that delegates to the interpreter — standing in for a
// real native backend in tests, since Go's plugin package cannot map a
// shared object these shell stand-ins produce.
type stubLoader struct{ g *graph.Graph }

func (s stubLoader) Load(soPath, symbol string) (compiler.RunFunc, error) {
	if _, err := os.Stat(soPath); err != nil {
		return nil, err
	}
	interpreted := compiler.NewInterpretedFunction(s.g, nil)
	return func(in, out []byte) int64 {
		output, status, err := interpreted.EvalRaw(in)
		if err != nil {
			panic(err)
		}
		copy(out, output)
		return status
	}, nil
}

func touchStage() []string {
	return []string{"sh", "-c", `touch "$3"`, "sh"}
}

func TestCompileRunsBackendAssemblerLinkerAndLoadsSymbol(t *testing.T) {
	g := buildAddGraph(t)

	opts := compiler.CompileOptions{
		Backend:   []string{"cat"},
		Assembler: touchStage(),
		Linker:    touchStage(),
		Symbol:    "jyafn_run",
		Loader:    stubLoader{g: g},
	}

	fn, err := compiler.Compile(g, nil, opts)
	require.NoError(t, err)

	input, err := g.InputLayout.Encode(map[string]any{"x": 2.0, "y": 3.0}, g.Symbols)
	require.NoError(t, err)
	output, status, err := fn.EvalRaw(input)
	require.NoError(t, err)
	require.Equal(t, int64(0), status)

	decoded, err := g.OutputLayout.Decode(output, g.Symbols)
	require.NoError(t, err)
	require.Equal(t, 5.0, decoded)
}

func TestCompileBackendFailureReturnsCompileError(t *testing.T) {
	g := buildAddGraph(t)

	opts := compiler.CompileOptions{
		Backend:   []string{"false"},
		Assembler: touchStage(),
		Linker:    touchStage(),
		Symbol:    "jyafn_run",
	}

	_, err := compiler.Compile(g, nil, opts)
	require.Error(t, err)
	var compileErr *compiler.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, compiler.BackendFailed, compileErr.Kind)
}

func TestCompileOrInterpretFallsBackWithoutBackendOnPath(t *testing.T) {
	g := buildAddGraph(t)

	opts := compiler.CompileOptions{
		Backend: []string{"definitely-not-a-real-jyafn-backend"},
	}
	fn, err := compiler.CompileOrInterpret(g, nil, opts)
	require.NoError(t, err)

	result, err := fn.Eval(map[string]any{"x": 4.0, "y": 1.5})
	require.NoError(t, err)
	require.Equal(t, 5.5, result)
}
