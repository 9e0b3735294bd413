package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine/model"
)

// FrameDecoder extracts keyframes from a media file entirely in memory,
// without intermediate disk writes.
type FrameDecoder interface {
	Keyframes(ctx context.Context, path string, op model.ExtractKeyframes) ([][]byte, error)
}

// DetectionSession is one loaded inference session. A single instance serves
// every file of a fast-path batch and must therefore be safe for concurrent
// use.
type DetectionSession interface {
	Detect(ctx context.Context, frame []byte, op model.DetectObjects) (model.PluginData, error)
}

// ExecuteBulkFastPath runs the fixed keyframes→detection pipeline over the
// files, bypassing the plugin contract: frames are decoded straight into
// memory and fed to one shared inference session. The concurrent-file bound
// and the per-file failure delivery are the same as ExecuteBulk's.
func (e *BulkExecutor) ExecuteBulkFastPath(ctx context.Context, dec FrameDecoder, sess DetectionSession, keyframes model.ExtractKeyframes, detect model.DetectObjects, files []string) (<-chan BulkFileResult, error) {
	if dec == nil {
		return nil, errors.New("frame decoder must be set")
	}
	if sess == nil {
		return nil, errors.New("detection session must be set")
	}

	return e.runBatch(ctx, files, func(ctx context.Context, path string) (*model.ExecutionResult, error) {
		return runFastPath(ctx, dec, sess, keyframes, detect, path)
	}), nil
}

func runFastPath(ctx context.Context, dec FrameDecoder, sess DetectionSession, keyframes model.ExtractKeyframes, detect model.DetectObjects, path string) (*model.ExecutionResult, error) {
	start := time.Now()

	frames, err := dec.Keyframes(ctx, path, keyframes)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode keyframes of %s", path)
	}
	decoded := time.Now()

	frameData := make([]model.PluginData, len(frames))
	detections := make([]model.PluginData, len(frames))
	for i, frame := range frames {
		frameData[i] = model.NewBytes(frame)
		det, err := sess.Detect(ctx, frame, detect)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to run detection on frame %d of %s", i, path)
		}
		detections[i] = det
	}

	return &model.ExecutionResult{
		RunID:  uuid.New(),
		Output: model.NewList(detections...),
		Stages: []model.StageResult{
			{
				Index:         0,
				PluginName:    "fastpath-decoder",
				OperationName: keyframes.Name(),
				Output:        model.NewList(frameData...),
				Duration:      decoded.Sub(start),
			},
			{
				Index:         1,
				PluginName:    "fastpath-detector",
				OperationName: detect.Name(),
				Output:        model.NewList(detections...),
				Duration:      time.Since(decoded),
			},
		},
		Duration: time.Since(start),
	}, nil
}
