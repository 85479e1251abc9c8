package graph_test

import (
	"testing"

	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/ops"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T) *graph.Builder {
	t.Helper()
	inputLayout := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "y", Layout: layout.NewScalar()},
	)
	b, err := graph.New(inputLayout)
	require.NoError(t, err)
	return b
}

func TestTopologicalOrderingByConstruction(t *testing.T) {
	b := newBuilder(t)
	x, err := b.PushInput("x")
	require.NoError(t, err)
	y, err := b.PushInput("y")
	require.NoError(t, err)
	sum, err := b.PushOp(ops.Add, []graph.NodeID{x, y}, nil)
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("sum", sum))
	b.SetOutputLayout(layout.NewScalar())

	g, err := b.Seal()
	require.NoError(t, err)

	for i, n := range g.Nodes {
		for _, dep := range []graph.NodeID{n.Source, n.KeyNode} {
			if dep != 0 {
				require.Less(t, int(dep), i)
			}
		}
	}
}

func TestConstantFoldingReplacesOpWithConst(t *testing.T) {
	b := newBuilder(t)
	c1, err := b.PushConst(2)
	require.NoError(t, err)
	c2, err := b.PushConst(3)
	require.NoError(t, err)
	sum, err := b.PushOp(ops.Add, []graph.NodeID{c1, c2}, nil)
	require.NoError(t, err)

	require.NoError(t, b.SetOutput("sum", sum))
	b.SetOutputLayout(layout.NewScalar())
	g, err := b.Seal()
	require.NoError(t, err)

	// three consts (c1, c2, folded sum) plus one output node
	require.Equal(t, graph.KindConst, g.Nodes[sum].Kind)
	require.Equal(t, 5.0, g.Nodes[sum].Value)
}

func TestArityMismatch(t *testing.T) {
	b := newBuilder(t)
	x, err := b.PushInput("x")
	require.NoError(t, err)
	_, err = b.PushOp(ops.Add, []graph.NodeID{x}, nil)
	require.Error(t, err)

	var buildErr *graph.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, graph.ArityMismatch, buildErr.Kind)
}

func TestUnknownInputPath(t *testing.T) {
	b := newBuilder(t)
	_, err := b.PushInput("nonexistent")
	require.Error(t, err)
}

func TestSealedBuilderRejectsFurtherMutation(t *testing.T) {
	b := newBuilder(t)
	x, err := b.PushInput("x")
	require.NoError(t, err)
	require.NoError(t, b.SetOutput("x", x))
	b.SetOutputLayout(layout.NewScalar())
	_, err = b.Seal()
	require.NoError(t, err)

	_, err = b.PushConst(1)
	require.Error(t, err)
}
