package drawer_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/engine/pkg/engine/drawer"
)

func TestDrawPlan(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "plan.dot")
	d := drawer.NewPlanDrawer(fileName)

	extractor := drawer.StageLabel(0, "audio-extractor")
	transcriber := drawer.StageLabel(1, "transcriber")

	require.NoError(t, d.AddStage(extractor))
	require.NoError(t, d.AddStage(transcriber))
	require.NoError(t, d.AddDependency(extractor, transcriber))
	d.SetDuration(extractor, 120*time.Millisecond)
	d.SetDuration(transcriber, 800*time.Millisecond)

	require.NoError(t, d.Draw())

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)

	dot := string(content)
	assert.Contains(t, dot, "strict digraph")
	assert.Contains(t, dot, `"0:audio-extractor" -> "1:transcriber"`)
	assert.Contains(t, dot, "120ms")
	assert.Contains(t, dot, "800ms")
}

func TestAddDuplicateStage(t *testing.T) {
	t.Parallel()

	d := drawer.NewPlanDrawer(filepath.Join(t.TempDir(), "plan.dot"))
	require.NoError(t, d.AddStage("0:transcriber"))
	assert.Error(t, d.AddStage("0:transcriber"))
}
