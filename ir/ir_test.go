package ir_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/ir"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/ops"
)

func encodeScalars(values ...float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], math.Float64bits(v))
	}
	return buf
}

func decodeScalar(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:8]))
}

func TestInterpretArithmetic(t *testing.T) {
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

	out, status, err := ir.Interpret(g, encodeScalars(2, 3), nil)
	require.NoError(t, err)
	require.Equal(t, ir.StatusOK, status)
	require.Equal(t, 5.0, decodeScalar(out))
}

func TestInterpretAssertFailureReturnsAssertionStatus(t *testing.T) {
	inputLayout := layout.NewStruct(layout.Field{Name: "x", Layout: layout.NewScalar()})
	b, err := graph.New(inputLayout)
	require.NoError(t, err)

	x, err := b.PushInput("x")
	require.NoError(t, err)
	msg, err := b.PushSymbol("x must be positive")
	require.NoError(t, err)
	cond, err := b.PushOp(ops.Gt, []graph.NodeID{x, mustConst(t, b, 0)}, nil)
	require.NoError(t, err)
	asserted, err := b.PushOp(ops.Assert, []graph.NodeID{cond, msg}, nil)
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("result", asserted))
	b.SetOutputLayout(layout.NewScalar())

	g, err := b.Seal()
	require.NoError(t, err)

	_, status, err := ir.Interpret(g, encodeScalars(-1), nil)
	require.NoError(t, err)
	require.Equal(t, ir.AssertionFailedBase+int64(g.Nodes[msg].SymbolID), status)

	table := ir.NewStatusTable(g.Symbols)
	rtErr := table.Translate(status)
	var re *ir.RuntimeError
	require.ErrorAs(t, rtErr, &re)
	require.Equal(t, ir.AssertionFailed, re.Kind)
	require.Equal(t, "x must be positive", re.Message)
}

func TestInterpretMappingLookupMissWithoutDefaultFails(t *testing.T) {
	inputLayout := layout.NewStruct(layout.Field{Name: "k", Layout: layout.NewScalar()})
	b, err := graph.New(inputLayout)
	require.NoError(t, err)

	mappingID, err := b.DeclareMapping("m", layout.NewScalar(), layout.NewScalar(), []mapping.Entry{
		{Key: 1.0, Value: 10.0},
		{Key: 2.0, Value: 20.0},
	})
	require.NoError(t, err)

	k, err := b.PushInput("k")
	require.NoError(t, err)
	lookup, err := b.PushMappingLookup(mappingID, k, graph.NoDefault)
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("result", lookup))
	b.SetOutputLayout(layout.NewScalar())

	g, err := b.Seal()
	require.NoError(t, err)

	_, status, err := ir.Interpret(g, encodeScalars(1), nil)
	require.NoError(t, err)
	require.Equal(t, ir.StatusOK, status)

	_, status, err = ir.Interpret(g, encodeScalars(99), nil)
	require.NoError(t, err)
	require.Equal(t, ir.StatusKeyNotFound, status)
}

func TestRenderEmitsInputAndOutputLines(t *testing.T) {
	inputLayout := layout.NewStruct(layout.Field{Name: "x", Layout: layout.NewScalar()})
	b, err := graph.New(inputLayout)
	require.NoError(t, err)
	x, err := b.PushInput("x")
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("result", x))
	b.SetOutputLayout(layout.NewScalar())
	g, err := b.Seal()
	require.NoError(t, err)

	text := ir.Render(g)
	require.Contains(t, text, "input \"x\"")
	require.Contains(t, text, "output \"result\"")
}

func mustConst(t *testing.T, b *graph.Builder, v float64) graph.NodeID {
	t.Helper()
	id, err := b.PushConst(v)
	require.NoError(t, err)
	return id
}
