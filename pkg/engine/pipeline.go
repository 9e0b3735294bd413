package engine

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine/model"
	"github.com/clipstream/engine/pkg/engine/plugin"
)

// PipelineStage pairs a plugin handle with an operation and the type labels
// that wire it to the rest of the pipeline. The plugin handle is shared, not
// owned: the same instance may serve many stages, runs and files at once.
type PipelineStage struct {
	Plugin     plugin.Plugin
	InputType  string
	OutputType string
	Operation  model.Operation
}

// Pipeline is an ordered, immutable sequence of stages. Executors borrow it
// read-only; Clone is cheap because stage handles are shared.
type Pipeline struct {
	Stages []PipelineStage
}

// NewPipeline assembles a pipeline from the given stages.
func NewPipeline(stages ...PipelineStage) *Pipeline {
	return &Pipeline{Stages: stages}
}

// Clone returns a pipeline an executor task can capture and hold
// independently of the caller's copy.
func (p *Pipeline) Clone() *Pipeline {
	stages := make([]PipelineStage, len(p.Stages))
	copy(stages, p.Stages)

	return &Pipeline{Stages: stages}
}

// Validate checks the pipeline's type-flow wiring at assembly time. It
// reports stages whose declared input type no earlier stage produces (and
// the initial input does not cover), and output types declared by more than
// one stage, which would silently overwrite one another at run time.
//
// Executors do not call Validate; runtime keeps last-writer-wins semantics.
func (p *Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return ErrPipelineEmpty
	}

	var problems []string

	producers := make(map[string][]int)
	for i, st := range p.Stages {
		producers[st.OutputType] = append(producers[st.OutputType], i)
	}
	for label, idxs := range producers {
		if len(idxs) > 1 {
			problems = append(problems, fmt.Sprintf("output type %q is produced by stages %v; later producers overwrite earlier ones", label, idxs))
		}
	}

	seed := p.Stages[0].InputType
	for i, st := range p.Stages {
		if st.InputType == seed {
			continue
		}
		produced := false
		for j := 0; j < i; j++ {
			if p.Stages[j].OutputType == st.InputType {
				produced = true

				break
			}
		}
		if !produced {
			problems = append(problems, fmt.Sprintf("stage %d (%s) declares input type %q, which no earlier stage produces", i, st.Plugin.Name(), st.InputType))
		}
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid pipeline: %s", strings.Join(problems, "; "))
	}

	return nil
}
