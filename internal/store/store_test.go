package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/engine/internal/store"
)

func TestSeededValue(t *testing.T) {
	t.Parallel()

	s := store.New("video", "clip.mp4")

	v, ok := s.Get("video")
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", v)

	_, ok = s.Get("audio")
	assert.False(t, ok)
}

func TestLastWriterWins(t *testing.T) {
	t.Parallel()

	s := store.New("video", "clip.mp4")
	s.Put("audio", "first")
	s.Put("audio", "second")

	v, ok := s.Get("audio")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestPutAllMerges(t *testing.T) {
	t.Parallel()

	s := store.New("video", "clip.mp4")
	s.PutAll(map[string]string{
		"audio":  "pcm",
		"frames": "jpeg",
	})

	v, ok := s.Get("audio")
	require.True(t, ok)
	assert.Equal(t, "pcm", v)

	v, ok = s.Get("frames")
	require.True(t, ok)
	assert.Equal(t, "jpeg", v)

	v, ok = s.Get("video")
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", v)
}
