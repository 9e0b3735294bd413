package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/clipstream/engine/pkg/engine/model"
)

// BulkExecutor fans one pipeline out across many independent files. Each
// file gets its own fully sequential run; a weighted semaphore bounds how
// many files are in flight at once, and every worker shares the executor's
// result cache so identical work is computed at most once across the whole
// batch.
type BulkExecutor struct {
	cfg config
}

// NewBulk creates a bulk executor. The concurrent-file bound defaults to the
// logical CPU count.
func NewBulk(opts ...Option) *BulkExecutor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &BulkExecutor{cfg: cfg}
}

// ExecuteBulk runs the pipeline once per file. Results are delivered in
// completion order, one message per file, successes and failures alike; a
// file's failure never affects its siblings. The returned channel is bounded
// and closes once every file has been reported.
func (e *BulkExecutor) ExecuteBulk(ctx context.Context, pipe *Pipeline, files []string) (<-chan BulkFileResult, error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(pipe.Stages) == 0 {
		return nil, ErrPipelineEmpty
	}

	owned := pipe.Clone()

	return e.runBatch(ctx, files, func(ctx context.Context, path string) (*model.ExecutionResult, error) {
		return e.cfg.runSequential(ctx, owned, model.NewPath(path), nil)
	}), nil
}

// runBatch drives one worker per file behind the concurrent-file semaphore
// and delivers every outcome on the returned channel.
func (e *BulkExecutor) runBatch(ctx context.Context, files []string, worker func(ctx context.Context, path string) (*model.ExecutionResult, error)) <-chan BulkFileResult {
	out := make(chan BulkFileResult, resultBufferSize)

	go func() {
		defer close(out)

		sem := semaphore.NewWeighted(e.cfg.maxConcurrentFiles)
		var wg sync.WaitGroup

		for _, file := range files {
			if err := sem.Acquire(ctx, 1); err != nil {
				// The caller gave up on the batch; unstarted files are
				// still reported, never silently dropped.
				out <- BulkFileResult{InputPath: file, Err: errors.Wrap(err, "batch aborted")}

				continue
			}

			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				defer sem.Release(1)

				start := time.Now()
				result, err := runFileSafe(ctx, path, worker)

				msg := BulkFileResult{InputPath: path, ProcessingTime: time.Since(start)}
				if err != nil {
					msg.Err = err
					e.cfg.log.Warn().Str("file", path).Err(err).Msg("file failed")
				} else {
					msg.Result = result
					e.cfg.log.Debug().Str("file", path).Dur("duration", msg.ProcessingTime).Msg("file finished")
				}

				out <- msg
			}(file)
		}

		wg.Wait()
	}()

	return out
}

// runFileSafe converts a panicking worker into a per-file failure so one
// file can never bring down the batch.
func runFileSafe(ctx context.Context, path string, worker func(ctx context.Context, path string) (*model.ExecutionResult, error)) (result *model.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("processing %s panicked: %v", path, r)
		}
	}()

	return worker(ctx, path)
}
