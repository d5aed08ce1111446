// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package execx

import (
	"context"
	"io"
	"os/exec"
	"slices"
	"strings"
	"sync"
)

// Fake is a scripted [Runner] for tests. Responses are registered per
// command-line prefix; unmatched commands succeed with empty output, the way
// most provisioning commands do. All invocations are recorded and can be
// inspected with [Fake.Calls].
type Fake struct {
	// Binaries are program names that LookPath reports as installed.
	Binaries []string

	mu       sync.Mutex
	handlers []fakeHandler
	calls    []Call
}

// Call is a single recorded invocation.
type Call struct {
	Cmd   string // the full command line
	Dir   string
	Stdin string
}

type fakeHandler struct {
	prefix string
	fn     func(cmd Cmd) (string, error)
}

// Handle registers fn to handle any command whose command line starts with
// prefix. Handlers are tried in registration order.
func (f *Fake) Handle(prefix string, fn func(cmd Cmd) (string, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: prefix, fn: fn})
}

// Respond registers a fixed stdout response for commands matching prefix.
func (f *Fake) Respond(prefix, stdout string) {
	f.Handle(prefix, func(Cmd) (string, error) { return stdout, nil })
}

// Fail registers a failure with the given exit code and stderr for commands
// matching prefix.
func (f *Fake) Fail(prefix string, exitCode int, stderr string) {
	f.Handle(prefix, func(cmd Cmd) (string, error) {
		return "", &Error{
			Cmd:      cmd.String(),
			ExitCode: exitCode,
			Stderr:   stderr,
			Err:      exec.ErrNotFound, // placeholder underlying error
		}
	})
}

// Run implements the [Runner] interface.
func (f *Fake) Run(_ context.Context, cmd Cmd) (string, error) {
	var stdin string
	if cmd.Stdin != nil {
		b, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return "", err
		}
		stdin = string(b)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Cmd: cmd.String(), Dir: cmd.Dir, Stdin: stdin})
	handlers := slices.Clone(f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		if strings.HasPrefix(cmd.String(), h.prefix) {
			return h.fn(cmd)
		}
	}
	return "", nil
}

// LookPath implements the [Runner] interface.
func (f *Fake) LookPath(name string) (string, error) {
	if slices.Contains(f.Binaries, name) {
		return "/usr/bin/" + name, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallLines returns the command lines of all recorded invocations.
func (f *Fake) CallLines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Cmd)
	}
	return lines
}

// Reset clears all recorded invocations, keeping registered handlers.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
