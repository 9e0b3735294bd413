package engine_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/clipstream/engine/pkg/engine"
	"github.com/clipstream/engine/pkg/engine/model"
	"github.com/clipstream/engine/pkg/engine/plugin"
)

// mockPlugin is an instrumented plugin: it counts invocations, tracks the
// highest number of concurrent executions observed, and can be configured to
// delay, fail, panic, transform its input or stream partial payloads.
type mockPlugin struct {
	name       string
	inputType  string
	outputType string

	delay     time.Duration
	sleepHard bool // sleep through the full delay, ignoring the context
	execErr   error
	panicMsg  string
	failOn    string // fail when the input is this path
	warnings  []string
	transform func(model.PluginData) model.PluginData
	partials  []model.PluginData

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (m *mockPlugin) Name() string { return m.name }

func (m *mockPlugin) Config() plugin.Descriptor {
	return plugin.Descriptor{
		InputTypes:  []string{m.inputType},
		OutputTypes: []string{m.outputType},
	}
}

func (m *mockPlugin) SupportsInput(t string) bool  { return t == m.inputType }
func (m *mockPlugin) ProducesOutput(t string) bool { return t == m.outputType }

func (m *mockPlugin) Execute(ctx context.Context, req *plugin.Request) (*plugin.Response, error) {
	m.calls.Add(1)

	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxInFlight.Load()
		if cur <= seen || m.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}

	if m.panicMsg != "" {
		panic(m.panicMsg)
	}

	if m.delay > 0 {
		if m.sleepHard {
			time.Sleep(m.delay)
		} else {
			select {
			case <-time.After(m.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if m.execErr != nil {
		return nil, m.execErr
	}
	if m.failOn != "" {
		if path, ok := req.Input.Path(); ok && path == m.failOn {
			return nil, &plugin.Error{Plugin: m.name, Operation: req.Operation.Name(), Err: errors.New("unreadable input")}
		}
	}

	out := req.Input
	if m.transform != nil {
		out = m.transform(req.Input)
	}

	return &plugin.Response{Output: out, Duration: m.delay, Warnings: m.warnings}, nil
}

func (m *mockPlugin) ExecuteStreaming(ctx context.Context, req *plugin.Request) (*plugin.StreamingResponse, error) {
	if len(m.partials) > 0 {
		ch := make(chan model.PluginData, len(m.partials))
		for _, p := range m.partials {
			ch <- p
		}
		close(ch)

		return &plugin.StreamingResponse{Partials: ch}, nil
	}

	resp, err := m.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	return &plugin.StreamingResponse{Complete: resp}, nil
}

var _ plugin.Plugin = (*mockPlugin)(nil)

// newStage wires a fresh mock plugin into a stage description.
func newStage(name, inputType, outputType string) (engine.PipelineStage, *mockPlugin) {
	mock := &mockPlugin{name: name, inputType: inputType, outputType: outputType}

	return engine.PipelineStage{
		Plugin:     mock,
		InputType:  inputType,
		OutputType: outputType,
		Operation:  model.Transcribe{Model: "base"},
	}, mock
}

// drain collects every message until the channel closes.
func drain(results <-chan engine.StreamingResult) []engine.StreamingResult {
	var msgs []engine.StreamingResult
	for msg := range results {
		msgs = append(msgs, msg)
	}

	return msgs
}

// drainBulk collects every per-file result until the channel closes.
func drainBulk(results <-chan engine.BulkFileResult) []engine.BulkFileResult {
	var msgs []engine.BulkFileResult
	for msg := range results {
		msgs = append(msgs, msg)
	}

	return msgs
}
