package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/jyafn/compiler"
)

func TestBatchEvalRawRunsEveryInputConcurrently(t *testing.T) {
	g := buildAddGraph(t)
	fn := compiler.NewInterpretedFunction(g, nil)

	const n = 64
	inputs := make([][]byte, n)
	for i := 0; i < n; i++ {
		buf, err := g.InputLayout.Encode(map[string]any{"x": float64(i), "y": 1.0}, g.Symbols)
		require.NoError(t, err)
		inputs[i] = buf
	}

	results := compiler.BatchEvalRaw(fn, inputs, 8)
	require.Len(t, results, n)
	for i, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, int64(0), r.Status)
		decoded, err := g.OutputLayout.Decode(r.Output, g.Symbols)
		require.NoError(t, err)
		require.Equal(t, float64(i)+1.0, decoded)
	}
}

func TestBatchEvalRawDefaultsWorkersToAvailableCPUs(t *testing.T) {
	g := buildAddGraph(t)
	fn := compiler.NewInterpretedFunction(g, nil)

	buf, err := g.InputLayout.Encode(map[string]any{"x": 1.0, "y": 2.0}, g.Symbols)
	require.NoError(t, err)

	results := compiler.BatchEvalRaw(fn, [][]byte{buf, buf, buf}, 0)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
}

func TestFunctionStatsAccumulateWhenEnabled(t *testing.T) {
	g := buildAddGraph(t)
	fn := compiler.NewInterpretedFunction(g, nil)
	fn.EnableStats = true

	buf, err := g.InputLayout.Encode(map[string]any{"x": 1.0, "y": 2.0}, g.Symbols)
	require.NoError(t, err)

	_, _, err = fn.EvalRaw(buf)
	require.NoError(t, err)
	_, _, err = fn.EvalRaw(buf)
	require.NoError(t, err)

	stats := fn.Stats()
	require.Equal(t, int64(2), stats.Calls)
	require.Equal(t, int64(0), stats.LastStatus)
}
