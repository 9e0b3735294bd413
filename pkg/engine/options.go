package engine

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/clipstream/engine/pkg/engine/cache"
)

// DefaultStageTimeout bounds a single stage execution unless overridden.
const DefaultStageTimeout = 300 * time.Second

type config struct {
	cache              cache.Cache
	stageTimeout       time.Duration // 0 disables the per-stage timeout
	intermediatesDir   string
	planFile           string
	maxConcurrentFiles int64
	maxParallelism     int
	log                zerolog.Logger
}

func defaultConfig() config {
	return config{
		stageTimeout:       DefaultStageTimeout,
		maxConcurrentFiles: int64(runtime.NumCPU()),
		log:                zerolog.Nop(),
	}
}

// Option configures an executor.
type Option func(*config)

// WithCache makes the executor consult and populate the given result cache.
// The same instance may be shared between executors; the bulk executor
// shares it across all of its file workers.
func WithCache(c cache.Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithStageTimeout bounds every stage execution. A stage exceeding the limit
// aborts the run with a StageTimeoutError.
func WithStageTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.stageTimeout = d
	}
}

// WithoutStageTimeout lets stages run for as long as they need.
func WithoutStageTimeout() Option {
	return func(cfg *config) {
		cfg.stageTimeout = 0
	}
}

// WithIntermediatesDir makes the debug executor persist every stage's raw
// output under dir: buffers verbatim, referenced files copied, structured
// values pretty-printed, list outputs counted.
func WithIntermediatesDir(dir string) Option {
	return func(cfg *config) {
		cfg.intermediatesDir = dir
	}
}

// WithPlanFile makes the debug executor render the pipeline's dependency
// graph, annotated with per-stage durations, to a DOT file after the run.
func WithPlanFile(path string) Option {
	return func(cfg *config) {
		cfg.planFile = path
	}
}

// WithMaxConcurrentFiles bounds how many files the bulk executor processes
// at once. Defaults to the logical CPU count.
func WithMaxConcurrentFiles(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxConcurrentFiles = int64(n)
		}
	}
}

// WithMaxParallelism bounds how many stages of one dependency level the
// performance executor runs at once. Unset means the level's width.
func WithMaxParallelism(n int) Option {
	return func(cfg *config) {
		cfg.maxParallelism = n
	}
}

// WithLogger attaches a structured logger. Executors log at debug level for
// per-stage events and warn level for timeouts and fallbacks.
func WithLogger(log zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.log = log
	}
}
