package engine

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
	ErrPipelineEmpty     = errors.New("pipeline has no stages")
)

// StageTimeoutError reports a stage that exceeded its configured time limit.
// The whole run is aborted when this happens.
type StageTimeoutError struct {
	Stage string
	Limit time.Duration
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %s did not finish within %s; raise the limit with WithStageTimeout or disable it with WithoutStageTimeout", e.Stage, e.Limit)
}

// MissingInputError reports a stage whose declared input type had no value in
// the shared store when the stage was scheduled. This is an orchestration
// failure, never silently substituted.
type MissingInputError struct {
	Stage     string
	InputType string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("no value of type %q available for stage %s", e.InputType, e.Stage)
}
