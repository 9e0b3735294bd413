package engine

import (
	"time"

	"github.com/clipstream/engine/pkg/engine/model"
)

// Outbound channels hold this many undelivered messages before the producer
// blocks. A slow consumer therefore throttles the run instead of growing an
// unbounded buffer.
const resultBufferSize = 100

// StreamingResult is one message on a performance executor's result channel.
// It is one of Partial, Complete or Final. Final is always the last message
// of a successful run; a channel that closes without one signals failure.
type StreamingResult interface {
	isStreamingResult()
}

// Partial carries an intermediate payload a stage streamed before
// completing.
type Partial struct {
	StageIndex int
	PluginName string
	Data       model.PluginData
}

func (Partial) isStreamingResult() {}

// Complete reports one finished stage, whether it ran fresh or came from the
// cache.
type Complete struct {
	Stage model.StageResult
}

func (Complete) isStreamingResult() {}

// Final carries the whole run's result. It is sent exactly once, last.
type Final struct {
	Result *model.ExecutionResult
}

func (Final) isStreamingResult() {}

// BulkFileResult reports one file of a bulk run, delivered in completion
// order. Failures are delivered like successes, never dropped; exactly one
// of Result and Err is set.
type BulkFileResult struct {
	InputPath      string
	Result         *model.ExecutionResult
	Err            error
	ProcessingTime time.Duration
}
