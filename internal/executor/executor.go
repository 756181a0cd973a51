package executor

import (
	"context"

	"github.com/tracelabs/evmtracer/internal/state"
)

// Task is one runtime entry point invocation against a state view.
type Task struct {
	// Wasm is the hex-encoded runtime binary to execute. It overrides
	// whatever runtime the forked chain state would otherwise use.
	Wasm       string `json:"wasm"`
	EntryPoint string `json:"entryPoint"`
	// Args are the SCALE-encoded arguments, hex-encoded individually.
	Args []string `json:"args"`
}

// TaskResult is the outcome of a runtime task. Error carries the runtime's
// own error string when the invocation failed; StorageDiff and Result are
// only meaningful when Error is empty.
type TaskResult struct {
	// Result is the hex-encoded return value of the entry point.
	Result      string     `json:"result"`
	StorageDiff state.Diff `json:"storageDiff"`
	Error       string     `json:"error,omitempty"`
}

// Executor runs a runtime task against a state view. Implementations never
// retry and never mutate state; applying the returned diff is the caller's
// job. Given identical inputs the result must be bit-identical. Unrecoverable
// faults are returned as a Go error, distinct from a TaskResult carrying the
// runtime's error outcome.
type Executor interface {
	RunTask(ctx context.Context, task Task, view state.Reader) (*TaskResult, error)
}
