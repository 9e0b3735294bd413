package plugin

import "fmt"

// Error is the failure a plugin reports from Execute or ExecuteStreaming.
type Error struct {
	// Plugin is the reporting plugin's name.
	Plugin string
	// Operation is the operation that failed.
	Operation string
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s: operation %s: %v", e.Plugin, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
