// Package plugin defines the contract between the execution engine and the
// units of work it schedules. The engine treats a plugin as an opaque
// capability: it only relies on the identity, the declared type labels, and
// the two execute entry points below.
package plugin

import (
	"context"
	"time"

	"github.com/clipstream/engine/pkg/engine/model"
)

// Plugin is one pluggable unit of work. Implementations must be safe for
// concurrent use: the same handle is shared across stages, runs and files,
// because constructing one may be expensive (loading a model, opening a
// session).
type Plugin interface {
	// Name identifies the plugin. It participates in cache keys and must
	// be stable.
	Name() string

	// Config describes what the plugin accepts, produces and needs.
	Config() Descriptor

	// SupportsInput reports whether the plugin accepts the given type label.
	SupportsInput(inputType string) bool

	// ProducesOutput reports whether the plugin produces the given type label.
	ProducesOutput(outputType string) bool

	// Execute runs the operation to full completion.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// ExecuteStreaming runs the operation with intermediate progress. When
	// the returned response only carries partials, the caller must still
	// invoke Execute afterwards to obtain the final value.
	ExecuteStreaming(ctx context.Context, req *Request) (*StreamingResponse, error)
}

// Descriptor is a plugin's static capability description.
type Descriptor struct {
	// InputTypes and OutputTypes list the type labels the plugin accepts
	// and produces.
	InputTypes  []string
	OutputTypes []string
	// Resources hints at what the plugin needs to run.
	Resources ResourceHints
}

// ResourceHints describes a plugin's resource requirements. Advisory only;
// the engine does not schedule on them.
type ResourceHints struct {
	GPU         bool
	MemoryBytes int64
}

// Request bundles everything a plugin needs for one invocation.
type Request struct {
	Operation model.Operation
	Input     model.PluginData
}

// Response is the outcome of a completed invocation.
type Response struct {
	Output   model.PluginData
	Duration time.Duration
	Warnings []string
}

// StreamingResponse is the outcome of a streaming invocation. Exactly one of
// the two fields is set: Complete when the plugin produced the final value
// directly, Partials when it streams intermediate payloads instead. A
// Partials channel is closed by the plugin once it has nothing more to send.
type StreamingResponse struct {
	Complete *Response
	Partials <-chan model.PluginData
}
