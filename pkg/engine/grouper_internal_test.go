package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Type-flow edges always point forward in pipeline order, so GroupStages
// cannot build a cyclic graph through the public API. The layering still
// defends against one: it must degrade to singleton groups, never fail.
func TestKahnLevelsCycle(t *testing.T) {
	t.Parallel()

	_, ok := kahnLevels(3, map[int][]int{
		0: {2},
		1: {0},
		2: {1},
	})
	assert.False(t, ok)
}

func TestKahnLevelsSelfLoop(t *testing.T) {
	t.Parallel()

	_, ok := kahnLevels(2, map[int][]int{1: {1}})
	assert.False(t, ok)
}

func TestSingletonFallbackOrder(t *testing.T) {
	t.Parallel()

	levels := singletonLevels(4)
	require.Len(t, levels, 4)
	for i, level := range levels {
		assert.Equal(t, []int{i}, level)
	}
}

func TestGroupFromPredsCycleFallback(t *testing.T) {
	t.Parallel()

	levels, warnings := groupFromPreds(3, map[int][]int{
		0: {2},
		1: {0},
		2: {1},
	})
	assert.Equal(t, [][]int{{0}, {1}, {2}}, levels)
	assert.Equal(t, []string{cycleWarning}, warnings)
}

func TestKahnLevelsAcyclic(t *testing.T) {
	t.Parallel()

	levels, ok := kahnLevels(4, map[int][]int{
		1: {0},
		2: {0},
		3: {1, 2},
	})
	require.True(t, ok)
	assert.Equal(t, [][]int{{0}, {1, 2}, {3}}, levels)
}
