// Package testkit holds fakes shared by the package tests.
package testkit

import (
	"context"
	"strings"
	"sync"

	"github.com/dockdb/dockdb/proc"
)

// RespondFunc maps one command invocation to its outcome.
type RespondFunc func(name string, args ...string) (proc.Result, error)

// Runner is a scripted proc.Runner that records every invocation.
type Runner struct {
	mu      sync.Mutex
	calls   []string
	Respond RespondFunc
}

func (r *Runner) Run(ctx context.Context, name string, args ...string) (proc.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	r.mu.Unlock()

	if r.Respond == nil {
		return proc.Result{}, nil
	}

	return r.Respond(name, args...)
}

// Calls returns every recorded invocation as a single space-joined string.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// Reset discards recorded invocations.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

// Lines builds a proc.Result with the given stdout lines and a zero
// exit code.
func Lines(lines ...string) proc.Result {
	if len(lines) == 0 {
		return proc.Result{}
	}

	return proc.Result{Stdout: strings.Join(lines, "\n") + "\n"}
}

// Exit builds a failed proc.Result with the given exit code and stderr.
func Exit(code int, stderr string) proc.Result {
	return proc.Result{ExitCode: code, Stderr: stderr}
}
