package layout_test

import (
	"testing"

	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/symtab"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "active", Layout: layout.NewBool()},
		layout.Field{Name: "tags", Layout: layout.NewList(layout.NewSymbol(), 2)},
	)

	top := symtab.NewTop()
	call := symtab.ForCall(top)

	v := map[string]any{
		"x":      3.5,
		"active": true,
		"tags":   []any{"alpha", "beta"},
	}

	buf, err := l.Encode(v, call)
	require.NoError(t, err)
	require.Equal(t, l.Size(), len(buf))

	decoded, err := l.Decode(buf, call)
	require.NoError(t, err)

	m := decoded.(map[string]any)
	require.Equal(t, 3.5, m["x"])
	require.Equal(t, true, m["active"])
	require.Equal(t, []any{"alpha", "beta"}, m["tags"])
}

func TestEncodeMissingFieldError(t *testing.T) {
	l := layout.NewStruct(layout.Field{Name: "x", Layout: layout.NewScalar()})
	top := symtab.NewTop()
	_, err := l.Encode(map[string]any{}, top)
	require.Error(t, err)

	var encErr *layout.EncodeError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, layout.MissingField, encErr.Kind)
}

func TestIsSuperset(t *testing.T) {
	a := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "y", Layout: layout.NewScalar()},
	)
	b := layout.NewStruct(layout.Field{Name: "x", Layout: layout.NewScalar()})

	require.True(t, a.IsSuperset(b))
	require.False(t, b.IsSuperset(a))
}

func TestJSONRoundTrip(t *testing.T) {
	l := layout.NewStruct(
		layout.Field{Name: "x", Layout: layout.NewScalar()},
		layout.Field{Name: "when", Layout: layout.NewDateTime("2006-01-02")},
	)
	data, err := l.ToJSON()
	require.NoError(t, err)

	back, err := layout.FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, l, back)
}

func TestFromJSONTolerant(t *testing.T) {
	// trailing comma + comment, which encoding/json alone rejects
	src := []byte(`{
		// a scalar
		"flavor": "scalar",
	}`)
	l, err := layout.FromJSON(src)
	require.NoError(t, err)
	require.Equal(t, layout.Scalar, l.Flavor)
}
