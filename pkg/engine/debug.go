package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine/drawer"
	"github.com/clipstream/engine/pkg/engine/model"
)

// DebugExecutor runs a pipeline one stage at a time with full
// instrumentation: per-stage timeout (default 300 s), optional persistence of
// every intermediate output, and an optional rendering of the execution plan.
// It trades throughput for observability.
type DebugExecutor struct {
	cfg config
}

// NewDebug creates a debug executor.
func NewDebug(opts ...Option) *DebugExecutor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &DebugExecutor{cfg: cfg}
}

// Execute runs the pipeline over the input and returns once every stage has
// finished. The output of stage i becomes the input of stage i+1
// unconditionally; the caller is responsible for the declared type labels
// actually lining up.
func (e *DebugExecutor) Execute(ctx context.Context, pipe *Pipeline, input model.PluginData) (*model.ExecutionResult, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(pipe.Stages) == 0 {
		return nil, ErrPipelineEmpty
	}
	if input.IsZero() {
		return nil, ErrInputMustBeSet
	}

	var onStage func(model.StageResult) error
	if e.cfg.intermediatesDir != "" {
		onStage = func(res model.StageResult) error {
			path, err := dumpIntermediate(e.cfg.intermediatesDir, res)
			if err != nil {
				return errors.Wrapf(err, "unable to persist output of stage %d", res.Index)
			}
			e.cfg.log.Debug().Int("stage", res.Index).Str("file", path).Msg("intermediate written")

			return nil
		}
	}

	result, err := e.cfg.runSequential(ctx, pipe, input, onStage)
	if err != nil {
		return nil, err
	}

	if e.cfg.planFile != "" {
		if err := e.drawPlan(pipe, result); err != nil {
			return nil, err
		}
	}

	e.cfg.log.Info().
		Stringer("run_id", result.RunID).
		Dur("duration", result.Duration).
		Int("stages", len(result.Stages)).
		Msg("debug run finished")

	return result, nil
}

func (e *DebugExecutor) drawPlan(pipe *Pipeline, result *model.ExecutionResult) error {
	d := drawer.NewPlanDrawer(e.cfg.planFile)

	names := make([]string, len(pipe.Stages))
	for i, st := range pipe.Stages {
		names[i] = drawer.StageLabel(i, st.Plugin.Name())
		if err := d.AddStage(names[i]); err != nil {
			return errors.Wrap(err, "unable to add stage to plan")
		}
	}
	for i := range pipe.Stages {
		for j := 0; j < i; j++ {
			if pipe.Stages[j].OutputType == pipe.Stages[i].InputType {
				if err := d.AddDependency(names[j], names[i]); err != nil {
					return errors.Wrap(err, "unable to add dependency to plan")
				}
			}
		}
	}
	for i, res := range result.Stages {
		d.SetDuration(names[i], res.Duration)
	}

	return errors.Wrap(d.Draw(), "unable to draw plan")
}
