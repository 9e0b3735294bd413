package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine/model"
	"github.com/clipstream/engine/pkg/engine/plugin"
)

// operationIdentity folds the operation's configuration into the identity
// cache keys are built from, so two stages sharing an operation kind but not
// a configuration never collide. Struct field order makes the JSON encoding
// deterministic.
func operationIdentity(op model.Operation) string {
	cfg, err := json.Marshal(op)
	if err != nil {
		return op.Name()
	}

	return op.Name() + ":" + string(cfg)
}

// callPlugin invokes Execute with a panic guard so a misbehaving plugin
// surfaces as a normal execution failure instead of taking the process down.
func callPlugin(ctx context.Context, p plugin.Plugin, req *plugin.Request) (resp *plugin.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("plugin %s panicked: %v", p.Name(), r)
		}
	}()

	return p.Execute(ctx, req)
}

func callPluginStreaming(ctx context.Context, p plugin.Plugin, req *plugin.Request) (resp *plugin.StreamingResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("plugin %s panicked: %v", p.Name(), r)
		}
	}()

	return p.ExecuteStreaming(ctx, req)
}

// lookupCache checks the configured cache for the stage's key. A hit is
// fully equivalent to fresh execution except that the duration is zero and
// no warnings are reported.
func (cfg *config) lookupCache(idx int, st PipelineStage, input model.PluginData) (model.StageResult, bool) {
	if cfg.cache == nil {
		return model.StageResult{}, false
	}

	out, ok := cfg.cache.Get(st.Plugin.Name(), operationIdentity(st.Operation), input)
	if !ok {
		return model.StageResult{}, false
	}

	cfg.log.Debug().
		Int("stage", idx).
		Str("plugin", st.Plugin.Name()).
		Str("operation", st.Operation.Name()).
		Msg("cache hit")

	return model.StageResult{
		Index:         idx,
		PluginName:    st.Plugin.Name(),
		OperationName: st.Operation.Name(),
		Output:        out,
		FromCache:     true,
	}, true
}

// runStage executes one stage to completion: cache check, plugin call under
// the configured timeout, cache write. The returned error aborts the run.
func (cfg *config) runStage(ctx context.Context, idx int, st PipelineStage, input model.PluginData) (model.StageResult, error) {
	if res, ok := cfg.lookupCache(idx, st, input); ok {
		return res, nil
	}

	req := &plugin.Request{Operation: st.Operation, Input: input.Clone()}
	start := time.Now()

	cfg.log.Debug().
		Int("stage", idx).
		Str("plugin", st.Plugin.Name()).
		Str("operation", st.Operation.Name()).
		Msg("stage started")

	var (
		resp *plugin.Response
		err  error
	)
	if cfg.stageTimeout > 0 {
		resp, err = cfg.callWithTimeout(ctx, st, req)
	} else {
		resp, err = callPlugin(ctx, st.Plugin, req)
	}
	if err != nil {
		return model.StageResult{}, errors.Wrapf(err, "stage %d (%s)", idx, st.Plugin.Name())
	}
	if resp == nil {
		return model.StageResult{}, errors.Errorf("stage %d (%s) returned no response", idx, st.Plugin.Name())
	}

	if cfg.cache != nil {
		cfg.cache.Put(st.Plugin.Name(), operationIdentity(st.Operation), input, resp.Output)
	}

	res := model.StageResult{
		Index:         idx,
		PluginName:    st.Plugin.Name(),
		OperationName: st.Operation.Name(),
		Output:        resp.Output,
		Duration:      time.Since(start),
		Warnings:      resp.Warnings,
	}

	cfg.log.Debug().
		Int("stage", idx).
		Str("plugin", st.Plugin.Name()).
		Dur("duration", res.Duration).
		Int("warnings", len(res.Warnings)).
		Msg("stage finished")

	return res, nil
}

// callWithTimeout runs the plugin in its own goroutine and gives up once the
// stage timeout elapses. The abandoned call keeps running until it honours
// its context; nothing waits for it.
func (cfg *config) callWithTimeout(ctx context.Context, st PipelineStage, req *plugin.Request) (*plugin.Response, error) {
	tctx, cancel := context.WithTimeout(ctx, cfg.stageTimeout)
	defer cancel()

	type outcome struct {
		resp *plugin.Response
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		resp, err := callPlugin(tctx, st.Plugin, req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		// A plugin that honours its context reports the deadline itself;
		// normalise that to the same distinguished error.
		if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &StageTimeoutError{Stage: st.Plugin.Name(), Limit: cfg.stageTimeout}
		}

		return out.resp, out.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "run aborted")
		}

		cfg.log.Warn().
			Str("plugin", st.Plugin.Name()).
			Dur("limit", cfg.stageTimeout).
			Msg("stage timed out")

		return nil, &StageTimeoutError{Stage: st.Plugin.Name(), Limit: cfg.stageTimeout}
	}
}

// runSequential drives the strict linear chain shared by the debug executor
// and every bulk file worker: the output of stage i is the input of stage
// i+1 unconditionally. onStage, when set, observes each completed stage
// before the next one starts.
func (cfg *config) runSequential(ctx context.Context, pipe *Pipeline, input model.PluginData, onStage func(model.StageResult) error) (*model.ExecutionResult, error) {
	start := time.Now()
	result := &model.ExecutionResult{
		RunID:  uuid.New(),
		Stages: make([]model.StageResult, 0, len(pipe.Stages)),
	}

	current := input
	for idx, st := range pipe.Stages {
		res, err := cfg.runStage(ctx, idx, st, current)
		if err != nil {
			return nil, err
		}
		if onStage != nil {
			if err := onStage(res); err != nil {
				return nil, err
			}
		}
		result.Stages = append(result.Stages, res)
		result.Warnings = append(result.Warnings, res.Warnings...)
		current = res.Output
	}

	result.Output = current
	result.Duration = time.Since(start)

	return result, nil
}
