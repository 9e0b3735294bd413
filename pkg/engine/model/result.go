package model

import (
	"time"

	"github.com/google/uuid"
)

// StageResult records one completed stage, whether it ran fresh or was
// served from the cache. It is immutable once created.
type StageResult struct {
	// Index is the stage's position in the pipeline.
	Index int
	// PluginName and OperationName identify what ran, for diagnostics.
	PluginName    string
	OperationName string
	// Output is the value the stage produced.
	Output PluginData
	// Duration is the stage's wall-clock time. Zero for cache hits.
	Duration time.Duration
	// Warnings are non-fatal messages the stage reported. Empty for
	// cache hits.
	Warnings []string
	// FromCache reports whether the result was served from the cache.
	FromCache bool
}

// ExecutionResult is the outcome of one full pipeline run over one input.
type ExecutionResult struct {
	// RunID correlates log lines and intermediates with this run.
	RunID uuid.UUID
	// Output is the final stage's output.
	Output PluginData
	// Stages holds one result per stage, in pipeline order.
	Stages []StageResult
	// Duration is the total wall-clock time of the run.
	Duration time.Duration
	// Warnings aggregates every stage's warnings plus any the scheduler
	// itself raised, for example the cycle-fallback notice.
	Warnings []string
}
