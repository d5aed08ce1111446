// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package execx runs external commands on behalf of tools that reconcile
// system state. All process invocations go through the [Runner] interface, so
// code that shells out can be tested without touching the real system.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.astrophena.name/dailynews/internal/logger"
)

// Cmd describes a single external command invocation.
type Cmd struct {
	// Name is the program to run, looked up in PATH if not absolute.
	Name string
	// Args are the program arguments.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Stdin is an optional standard input.
	Stdin io.Reader
	// Env are additional environment variables in KEY=VALUE form, appended to
	// the current environment.
	Env []string
	// Redact are strings that must never appear in logs or error messages,
	// such as credentials embedded in an argument.
	Redact []string
}

func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Redacted returns the command line with all Redact strings expunged. This is
// the form used in logs and error messages.
func (c Cmd) Redacted() string {
	s := c.String()
	for _, r := range c.Redact {
		if r == "" {
			continue
		}
		s = strings.ReplaceAll(s, r, "[EXPUNGED]")
	}
	return s
}

// Error is returned by [Runner.Run] when the command exits with a nonzero
// status or fails to start.
type Error struct {
	Cmd      string // the command line that failed
	ExitCode int    // -1 if the command didn't run
	Stderr   string // captured standard error, may be empty
	Err      error  // the underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the exit code carried by err, or -1 if err doesn't carry
// one.
func ExitCode(err error) int {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.ExitCode
	}
	return -1
}

// Runner runs external commands.
type Runner interface {
	// Run runs cmd, waits for it to finish and returns its standard output.
	// A nonzero exit status is reported as an [*Error].
	Run(ctx context.Context, cmd Cmd) (stdout string, err error)

	// LookPath searches for an executable in PATH.
	LookPath(name string) (string, error)
}

// New returns a [Runner] that runs commands on the host system, logging each
// invocation to logf.
func New(logf logger.Logf) Runner { return &osRunner{logf: logf} }

type osRunner struct{ logf logger.Logf }

func (r *osRunner) Run(ctx context.Context, cmd Cmd) (string, error) {
	if r.logf != nil {
		r.logf("+ %s", cmd.Redacted())
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		code := -1
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			code = ee.ExitCode()
		}
		return stdout.String(), &Error{
			Cmd:      cmd.Redacted(),
			ExitCode: code,
			Stderr:   redact(stderr.String(), cmd.Redact),
			Err:      err,
		}
	}
	return stdout.String(), nil
}

func (r *osRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

func redact(s string, secrets []string) string {
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, "[EXPUNGED]")
	}
	return s
}
