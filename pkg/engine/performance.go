package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/clipstream/engine/internal/store"
	"github.com/clipstream/engine/pkg/engine/model"
	"github.com/clipstream/engine/pkg/engine/plugin"
)

// PerformanceExecutor runs a pipeline level by level: stages with no
// dependency on one another execute concurrently, and every completion
// streams to the caller as it happens. Per-stage timeouts are disabled
// unless configured.
type PerformanceExecutor struct {
	cfg config
}

// NewPerformance creates a performance executor.
func NewPerformance(opts ...Option) *PerformanceExecutor {
	cfg := defaultConfig()
	cfg.stageTimeout = 0
	for _, opt := range opts {
		opt(&cfg)
	}

	return &PerformanceExecutor{cfg: cfg}
}

// ExecuteStreaming starts the run and returns a channel of Partial, Complete
// and Final messages. The last message of a successful run is always Final;
// if any stage fails, the channel closes without one. The channel is bounded:
// a consumer that stops draining stalls the run rather than growing a buffer.
//
// Abandoning the channel does not stop work already dispatched; stages run to
// completion or timeout regardless of whether anyone is still listening.
func (e *PerformanceExecutor) ExecuteStreaming(ctx context.Context, pipe *Pipeline, input model.PluginData) (<-chan StreamingResult, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(pipe.Stages) == 0 {
		return nil, ErrPipelineEmpty
	}
	if input.IsZero() {
		return nil, ErrInputMustBeSet
	}

	out := make(chan StreamingResult, resultBufferSize)
	go e.run(ctx, pipe.Clone(), input, out)

	return out, nil
}

func (e *PerformanceExecutor) run(ctx context.Context, pipe *Pipeline, input model.PluginData, out chan<- StreamingResult) {
	defer close(out)

	start := time.Now()
	levels, warnings := GroupStages(pipe)
	for _, w := range warnings {
		e.cfg.log.Warn().Msg(w)
	}

	values := store.New(pipe.Stages[0].InputType, input)
	results := make([]model.StageResult, len(pipe.Stages))

	for _, level := range levels {
		if err := e.runLevel(ctx, pipe, level, values, results, out); err != nil {
			e.cfg.log.Error().Err(err).Msg("pipeline run failed")

			return
		}
	}

	result := &model.ExecutionResult{
		RunID:    uuid.New(),
		Output:   results[len(results)-1].Output,
		Stages:   results,
		Duration: time.Since(start),
		Warnings: warnings,
	}
	for _, res := range results {
		result.Warnings = append(result.Warnings, res.Warnings...)
	}

	out <- Final{Result: result}
}

// runLevel executes one dependency level and merges its outputs back into
// the shared store. The merge is the barrier that keeps a later level from
// reading a stale value.
func (e *PerformanceExecutor) runLevel(ctx context.Context, pipe *Pipeline, level []int, values *store.ValueStore[model.PluginData], results []model.StageResult, out chan<- StreamingResult) error {
	if len(level) == 1 {
		idx := level[0]
		res, err := e.runStageStreaming(ctx, idx, pipe.Stages[idx], values, out)
		if err != nil {
			return err
		}
		results[idx] = res
		out <- Complete{Stage: res}
		values.Put(pipe.Stages[idx].OutputType, res.Output)

		return nil
	}

	grp, gctx := errgroup.WithContext(ctx)
	if e.cfg.maxParallelism > 0 {
		grp.SetLimit(e.cfg.maxParallelism)
	}

	var mu sync.Mutex
	merged := make(map[string]model.PluginData, len(level))

	for _, idx := range level {
		idx := idx
		st := pipe.Stages[idx]
		grp.Go(func() (err error) {
			// A panicking task is converted to a normal failure at this
			// join point so it never brings the run down.
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("stage %d (%s) panicked: %v", idx, st.Plugin.Name(), r)
				}
			}()

			res, err := e.runStageStreaming(gctx, idx, st, values, out)
			if err != nil {
				return err
			}

			mu.Lock()
			results[idx] = res
			merged[st.OutputType] = res.Output
			mu.Unlock()

			select {
			case out <- Complete{Stage: res}:
			case <-gctx.Done():
				return errors.Wrap(gctx.Err(), "run aborted")
			}

			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}

	values.PutAll(merged)

	return nil
}

// runStageStreaming resolves the stage's input from the shared store, then
// serves it from the cache or runs it, forwarding any native streaming
// progress as Partial messages before obtaining the final value.
func (e *PerformanceExecutor) runStageStreaming(ctx context.Context, idx int, st PipelineStage, values *store.ValueStore[model.PluginData], out chan<- StreamingResult) (model.StageResult, error) {
	input, ok := values.Get(st.InputType)
	if !ok {
		return model.StageResult{}, &MissingInputError{Stage: st.Plugin.Name(), InputType: st.InputType}
	}

	if res, ok := e.cfg.lookupCache(idx, st, input); ok {
		return res, nil
	}

	req := &plugin.Request{Operation: st.Operation, Input: input.Clone()}

	// The stage timeout covers the streaming entry point and the partial
	// drain, not only the fallback completion path.
	streamCtx := ctx
	if e.cfg.stageTimeout > 0 {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithTimeout(ctx, e.cfg.stageTimeout)
		defer cancel()
	}

	sresp, err := e.streamBounded(ctx, streamCtx, st, req)
	if err != nil {
		return model.StageResult{}, errors.Wrapf(err, "stage %d (%s)", idx, st.Plugin.Name())
	}

	if sresp != nil && sresp.Complete != nil {
		resp := sresp.Complete
		if e.cfg.cache != nil {
			e.cfg.cache.Put(st.Plugin.Name(), operationIdentity(st.Operation), input, resp.Output)
		}

		return model.StageResult{
			Index:         idx,
			PluginName:    st.Plugin.Name(),
			OperationName: st.Operation.Name(),
			Output:        resp.Output,
			Duration:      resp.Duration,
			Warnings:      resp.Warnings,
		}, nil
	}

	if sresp != nil && sresp.Partials != nil {
		for data := range sresp.Partials {
			select {
			case out <- Partial{StageIndex: idx, PluginName: st.Plugin.Name(), Data: data}:
			case <-streamCtx.Done():
				if ctx.Err() != nil {
					return model.StageResult{}, errors.Wrap(ctx.Err(), "run aborted")
				}

				return model.StageResult{}, &StageTimeoutError{Stage: st.Plugin.Name(), Limit: e.cfg.stageTimeout}
			}
		}
	}

	// Streaming only delivered progress; the completion path produces the
	// final value.
	return e.cfg.runStage(ctx, idx, st, input)
}

// streamBounded invokes the streaming entry point and gives up once the
// stage deadline elapses, reporting the same distinguished error as the
// completion path. An abandoned call keeps running until it honours its
// context; nothing waits for it.
func (e *PerformanceExecutor) streamBounded(parent, ctx context.Context, st PipelineStage, req *plugin.Request) (*plugin.StreamingResponse, error) {
	if e.cfg.stageTimeout <= 0 {
		return callPluginStreaming(ctx, st.Plugin, req)
	}

	type outcome struct {
		resp *plugin.StreamingResponse
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		resp, err := callPluginStreaming(ctx, st.Plugin, req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if errors.Is(out.err, context.DeadlineExceeded) && parent.Err() == nil {
			return nil, &StageTimeoutError{Stage: st.Plugin.Name(), Limit: e.cfg.stageTimeout}
		}

		return out.resp, out.err
	case <-ctx.Done():
		if parent.Err() != nil {
			return nil, errors.Wrap(parent.Err(), "run aborted")
		}

		e.cfg.log.Warn().
			Str("plugin", st.Plugin.Name()).
			Dur("limit", e.cfg.stageTimeout).
			Msg("stage timed out")

		return nil, &StageTimeoutError{Stage: st.Plugin.Name(), Limit: e.cfg.stageTimeout}
	}
}
