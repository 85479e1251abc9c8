package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/jyafn/compiler"
)

func TestCallArenaRegionsDoNotOverlap(t *testing.T) {
	a := compiler.NewCallArena(16, 24, 64)

	input := a.Input()
	output := a.Output()
	require.Len(t, input, 16)
	require.Len(t, output, 24)

	copy(input, []byte{1, 2, 3, 4})
	require.NotEqual(t, input[0], output[0])
}

func TestCallArenaScratchBumpAllocatorExhausts(t *testing.T) {
	a := compiler.NewCallArena(8, 8, 32)

	first, err := a.AllocScratch(20)
	require.NoError(t, err)
	require.Len(t, first, 20)

	_, err = a.AllocScratch(20)
	require.Error(t, err)

	a.Reset()
	second, err := a.AllocScratch(20)
	require.NoError(t, err)
	require.Len(t, second, 20)
}
