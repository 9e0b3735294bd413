package model

import "time"

// Operation configures one invocation of a plugin capability. The set of
// operations is closed: one variant per capability the engine schedules.
// Name is stable across releases because it participates in cache keys.
type Operation interface {
	Name() string

	isOperation()
}

// ExtractAudio pulls the audio track out of a media container.
type ExtractAudio struct {
	SampleRate int
	Channels   int
	Format     string
}

func (ExtractAudio) Name() string { return "extract_audio" }
func (ExtractAudio) isOperation() {}

// Transcribe turns an audio buffer into text.
type Transcribe struct {
	Model          string
	Language       string
	WordTimestamps bool
}

func (Transcribe) Name() string { return "transcribe" }
func (Transcribe) isOperation() {}

// ExtractKeyframes samples representative frames from a video.
type ExtractKeyframes struct {
	Interval  time.Duration
	MaxFrames int
}

func (ExtractKeyframes) Name() string { return "extract_keyframes" }
func (ExtractKeyframes) isOperation() {}

// DetectObjects runs an object detector over one or more frames.
type DetectObjects struct {
	Model     string
	Threshold float32
	Labels    []string
}

func (DetectObjects) Name() string { return "detect_objects" }
func (DetectObjects) isOperation() {}

// Embed produces a vector embedding for text or an image.
type Embed struct {
	Model      string
	Dimensions int
}

func (Embed) Name() string { return "embed" }
func (Embed) isOperation() {}
