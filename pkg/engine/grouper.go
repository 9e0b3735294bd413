package engine

import (
	"github.com/dominikbraun/graph"
)

// cycleWarning is surfaced on the run's warnings when grouping degrades to
// sequential execution.
const cycleWarning = "dependency grouping detected a cycle in the type-flow graph; stages run sequentially in pipeline order"

// GroupStages partitions a pipeline's stages into ordered execution levels.
// Stage j is a dependency of stage i when j precedes i lexically and j's
// output type equals i's input type; lexical precedence is the only
// dependency signal. Stages within one level have no dependency on one
// another and may run concurrently, and level k+1 never starts before level
// k has finished.
//
// GroupStages is pure and deterministic for a fixed pipeline. The union of
// the returned levels is always exactly the full stage index set: if the
// type-flow graph turns out to be cyclic, grouping falls back to one
// singleton level per stage in pipeline order and reports the condition as a
// warning, never as an error.
func GroupStages(pipe *Pipeline) ([][]int, []string) {
	n := len(pipe.Stages)
	if n == 0 {
		return nil, nil
	}

	g := graph.New(graph.IntHash, graph.Directed())
	for i := 0; i < n; i++ {
		_ = g.AddVertex(i)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if pipe.Stages[j].OutputType == pipe.Stages[i].InputType {
				_ = g.AddEdge(j, i)
			}
		}
	}

	predMap, err := g.PredecessorMap()
	if err != nil {
		return singletonLevels(n), []string{cycleWarning}
	}
	preds := make(map[int][]int, n)
	for i, sources := range predMap {
		for j := range sources {
			preds[i] = append(preds[i], j)
		}
	}

	return groupFromPreds(n, preds)
}

// groupFromPreds layers the stages and applies the cycle fallback: when no
// complete layering exists, every stage becomes its own group in pipeline
// order and the condition surfaces as a warning, never as an error.
func groupFromPreds(n int, preds map[int][]int) ([][]int, []string) {
	levels, ok := kahnLevels(n, preds)
	if !ok {
		return singletonLevels(n), []string{cycleWarning}
	}

	return levels, nil
}

// kahnLevels is Kahn's algorithm generalised to level grouping: each round
// takes every unplaced stage whose dependencies were all placed in earlier
// rounds. It reports false when the dependency graph is cyclic, in which
// case no complete layering exists.
func kahnLevels(n int, preds map[int][]int) ([][]int, bool) {
	placed := make([]bool, n)
	remaining := n
	var levels [][]int

	for remaining > 0 {
		var level []int
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			ready := true
			for _, j := range preds[i] {
				if !placed[j] {
					ready = false

					break
				}
			}
			if ready {
				level = append(level, i)
			}
		}
		if len(level) == 0 {
			// No stage is ready even though some remain: a cycle.
			return nil, false
		}
		for _, i := range level {
			placed[i] = true
		}
		remaining -= len(level)
		levels = append(levels, level)
	}

	return levels, true
}

func singletonLevels(n int) [][]int {
	levels := make([][]int, n)
	for i := 0; i < n; i++ {
		levels[i] = []int{i}
	}

	return levels
}
