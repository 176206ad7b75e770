package spacetree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaPointersSurviveGrowth(t *testing.T) {
	var a arena

	h, first := a.alloc()
	require.Equal(t, Handle(0), h)
	first.GlobalPosition[0] = 42

	for i := 0; i < 3*chunkSize; i++ {
		a.alloc()
	}

	require.Equal(t, 3*chunkSize+1, a.len())
	require.Same(t, first, a.at(h))
	require.Equal(t, 42.0, a.at(h).GlobalPosition[0])
}

func TestArenaAllocInitializesNode(t *testing.T) {
	var a arena
	for i := 0; i < chunkSize+2; i++ {
		h, n := a.alloc()
		require.Equal(t, h, n.Index)
		require.Equal(t, NoHandle, n.Parent)
		require.Equal(t, -1, n.PartitionIndex)
		for _, c := range n.children {
			require.Equal(t, NoHandle, c)
		}
	}
}

func TestArenaReset(t *testing.T) {
	var a arena
	_, old := a.alloc()
	old.Built = true

	a.reset()
	require.Equal(t, 0, a.len())
	require.Panics(t, func() { a.at(0) })

	_, fresh := a.alloc()
	require.False(t, fresh.Built)
	require.NotSame(t, old, fresh)
	require.True(t, old.Built)
}

func TestArenaOutOfRange(t *testing.T) {
	var a arena
	a.alloc()
	require.Panics(t, func() { a.at(1) })
	require.Panics(t, func() { a.at(NoHandle) })
}
