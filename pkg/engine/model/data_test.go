package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/engine/pkg/engine/model"
)

func TestKindAccessors(t *testing.T) {
	t.Parallel()

	buf := model.NewBytes([]byte("pcm"))
	b, ok := buf.Bytes()
	require.True(t, ok)
	assert.Equal(t, []byte("pcm"), b)
	_, ok = buf.Path()
	assert.False(t, ok)

	path := model.NewPath("clip.mp4")
	p, ok := path.Path()
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", p)

	structured := model.NewStructured(map[string]any{"text": "hi"})
	v, ok := structured.Structured()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hi"}, v)

	list := model.NewList(buf, path)
	items, ok := list.List()
	require.True(t, ok)
	assert.Len(t, items, 2)

	assert.True(t, model.PluginData{}.IsZero())
	assert.False(t, buf.IsZero())
}

func TestCanonicalDeterminism(t *testing.T) {
	t.Parallel()

	a := model.NewStructured(map[string]any{"text": "hello", "segments": []any{1.0, 2.0}})
	b := model.NewStructured(map[string]any{"segments": []any{1.0, 2.0}, "text": "hello"})

	encA, err := a.Canonical()
	require.NoError(t, err)
	encB, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, encA, encB, "structurally equal values must encode identically")

	again, err := a.Canonical()
	require.NoError(t, err)
	assert.Equal(t, encA, again, "encoding must be stable across calls")
}

func TestCanonicalDistinguishesVariants(t *testing.T) {
	t.Parallel()

	asBytes, err := model.NewBytes([]byte("clip.mp4")).Canonical()
	require.NoError(t, err)
	asPath, err := model.NewPath("clip.mp4").Canonical()
	require.NoError(t, err)
	assert.NotEqual(t, asBytes, asPath, "same payload under different variants must not collide")
}

func TestCanonicalNested(t *testing.T) {
	t.Parallel()

	flat := model.NewList(model.NewBytes([]byte("a")), model.NewBytes([]byte("b")))
	nested := model.NewList(model.NewList(model.NewBytes([]byte("a")), model.NewBytes([]byte("b"))))

	encFlat, err := flat.Canonical()
	require.NoError(t, err)
	encNested, err := nested.Canonical()
	require.NoError(t, err)
	assert.NotEqual(t, encFlat, encNested)
}

func TestCanonicalZeroValue(t *testing.T) {
	t.Parallel()

	_, err := model.PluginData{}.Canonical()
	assert.Error(t, err)
}

func TestCloneListIsIndependent(t *testing.T) {
	t.Parallel()

	original := model.NewList(model.NewBytes([]byte("f0")), model.NewBytes([]byte("f1")))
	clone := original.Clone()

	origItems, _ := original.List()
	cloneItems, _ := clone.List()
	require.Len(t, cloneItems, len(origItems))
	assert.Equal(t, origItems, cloneItems)
}

func TestOperationNames(t *testing.T) {
	t.Parallel()

	ops := []model.Operation{
		model.ExtractAudio{},
		model.Transcribe{},
		model.ExtractKeyframes{},
		model.DetectObjects{},
		model.Embed{},
	}

	seen := make(map[string]bool)
	for _, op := range ops {
		name := op.Name()
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "operation names must be distinct")
		seen[name] = true
	}
}
