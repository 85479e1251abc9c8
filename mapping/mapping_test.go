package mapping_test

import (
	"testing"

	"github.com/sbl8/jyafn/layout"
	"github.com/sbl8/jyafn/mapping"
	"github.com/sbl8/jyafn/symtab"
	"github.com/stretchr/testify/require"
)

func TestLookupAndDedup(t *testing.T) {
	top := symtab.NewTop()
	entries := []mapping.Entry{
		{Key: 3.0, Value: "three"},
		{Key: 1.0, Value: "one"},
		{Key: 2.0, Value: "two"},
		{Key: 1.0, Value: "one-overwritten"}, // duplicate key, last wins
	}
	m, err := mapping.New("digits", layout.NewScalar(), layout.NewSymbol(), entries, top)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	v, ok, err := m.LookupValue(1.0, top)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "one-overwritten", v)

	_, ok, err = m.LookupValue(99.0, top)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSerializeRoundTrip(t *testing.T) {
	top := symtab.NewTop()
	entries := []mapping.Entry{{Key: 1.0, Value: 10.0}, {Key: 2.0, Value: 20.0}}
	m, err := mapping.New("m", layout.NewScalar(), layout.NewScalar(), entries, top)
	require.NoError(t, err)

	data := m.Serialize()
	back, err := mapping.Deserialize("m", layout.NewScalar(), layout.NewScalar(), data)
	require.NoError(t, err)

	v, ok, err := back.LookupValue(2.0, top)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20.0, v)
}
