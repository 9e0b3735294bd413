package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/engine/pkg/engine"
)

func TestValidateEmpty(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, engine.NewPipeline().Validate(), engine.ErrPipelineEmpty)
}

func TestValidateChain(t *testing.T) {
	t.Parallel()

	extract, _ := newStage("audio-extractor", "video", "audio")
	transcribe, _ := newStage("transcriber", "audio", "text")

	assert.NoError(t, engine.NewPipeline(extract, transcribe).Validate())
}

func TestValidateDuplicateProducers(t *testing.T) {
	t.Parallel()

	a, _ := newStage("transcriber-a", "video", "text")
	b, _ := newStage("transcriber-b", "video", "text")

	err := engine.NewPipeline(a, b).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `output type "text"`)
}

func TestValidateUnproducedInput(t *testing.T) {
	t.Parallel()

	extract, _ := newStage("audio-extractor", "video", "audio")
	orphan, _ := newStage("embedder", "captions", "embedding")

	err := engine.NewPipeline(extract, orphan).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"captions"`)
	assert.Contains(t, err.Error(), "embedder")
}

func TestCloneSharesHandles(t *testing.T) {
	t.Parallel()

	st, mock := newStage("transcriber", "audio", "text")
	pipe := engine.NewPipeline(st)
	clone := pipe.Clone()

	require.Len(t, clone.Stages, 1)
	assert.Same(t, mock, clone.Stages[0].Plugin.(*mockPlugin), "stage handles are shared, not duplicated")
}
