package engine_test

import (
	"context"
	"fmt"

	"github.com/clipstream/engine/pkg/engine"
	"github.com/clipstream/engine/pkg/engine/cache"
	"github.com/clipstream/engine/pkg/engine/model"
)

// Assemble a two-stage pipeline and run it under the debug executor.
func Example() {
	extract, _ := newStage("audio-extractor", "video", "audio")
	transcribe, _ := newStage("transcriber", "audio", "text")
	pipe := engine.NewPipeline(extract, transcribe)

	exec := engine.NewDebug(engine.WithCache(cache.NewUnbounded()))
	result, err := exec.Execute(context.Background(), pipe, model.NewPath("talk.mp4"))
	if err != nil {
		fmt.Println("run failed:", err)

		return
	}

	fmt.Println("stages completed:", len(result.Stages))
	// Output:
	// stages completed: 2
}
