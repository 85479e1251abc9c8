package artifact_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/jyafn/artifact"
	"github.com/sbl8/jyafn/graph"
	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/ops"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	inputLayout := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "k", Layout: layout.NewScalar()},
	)
	b, err := graph.New(inputLayout)
	require.NoError(t, err)

	mappingID, err := b.DeclareMapping("lookup", layout.NewScalar(), layout.NewScalar(), []mapping.Entry{
		{Key: 1.0, Value: 100.0},
		{Key: 2.0, Value: 200.0},
	})
	require.NoError(t, err)

	x, err := b.PushInput("x")
	require.NoError(t, err)
	k, err := b.PushInput("k")
	require.NoError(t, err)
	doubled, err := b.PushOp(ops.Mul, []graph.NodeID{x, mustConstNode(t, b, 2)}, nil)
	require.NoError(t, err)
	looked, err := b.PushMappingLookup(mappingID, k, graph.NoDefault)
	require.NoError(t, err)
	sum, err := b.PushOp(ops.Add, []graph.NodeID{doubled, looked}, nil)
	require.NoError(t, err)

	require.NoError(t, b.SetOutput("result", sum))
	b.SetOutputLayout(layout.NewScalar())
	b.SetMetadata("author", "test-suite")

	g, err := b.Seal()
	require.NoError(t, err)
	return g
}

func mustConstNode(t *testing.T, b *graph.Builder, v float64) graph.NodeID {
	t.Helper()
	id, err := b.PushConst(v)
	require.NoError(t, err)
	return id
}

func TestSaveLoadRoundTripInitialized(t *testing.T) {
	g := buildSampleGraph(t)

	data, err := artifact.Save(g, "sample")
	require.NoError(t, err)

	loaded, err := artifact.Load(data, true)
	require.NoError(t, err)

	require.Equal(t, g.NodeCount(), loaded.NodeCount())
	require.Equal(t, "test-suite", loaded.Metadata["author"])
	require.Equal(t, 1, len(loaded.Mappings))
	require.Equal(t, 2, loaded.Mappings[0].Len())

	value, ok, err := loaded.Mappings[0].LookupValue(1.0, loaded.Symbols)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 100.0, value)
}

func TestLoadWithoutInitializeSkipsMappingRows(t *testing.T) {
	g := buildSampleGraph(t)
	data, err := artifact.Save(g, "sample")
	require.NoError(t, err)

	loaded, err := artifact.Load(data, false)
	require.NoError(t, err)
	require.Equal(t, 1, len(loaded.Mappings))
	require.Equal(t, 0, loaded.Mappings[0].Len())
}

func TestDecodeGraphBinRejectsBadMagic(t *testing.T) {
	_, err := artifact.DecodeGraphBin([]byte{0, 0, 0, 0})
	require.Error(t, err)
	var serErr *artifact.SerializationError
	require.ErrorAs(t, err, &serErr)
	require.Equal(t, artifact.CorruptArtifact, serErr.Kind)
}

func TestLoadRejectsMissingGraphBin(t *testing.T) {
	_, err := artifact.Load([]byte("PK\x05\x06\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), true)
	require.Error(t, err)
}
