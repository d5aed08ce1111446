// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package crontab reads, rewrites and reconciles per-user scheduled-job
// tables.
//
// The table is always handled as a whole: read the full table, compute the
// new full table, write it back. Entries owned by this system are recognized
// by marker substrings; all other entries belong to someone else and are
// preserved byte-for-byte in their original order.
package crontab

import (
	"context"
	"errors"
	"strings"

	"go.astrophena.name/dailynews/internal/execx"
)

// Job is a single scheduled entry owned by this system.
type Job struct {
	// Schedule is a five-field cron expression.
	Schedule string
	// Command is the command line to run.
	Command string
	// Log is an optional file the command's output is appended to.
	Log string
	// Tag is an optional trailing comment marking the line as owned.
	Tag string
}

// Line renders the job as a crontab line. The tag comes last: cron hands the
// line to the shell, which treats everything after # as a comment, so a tag
// placed before the log redirection would disable it.
func (j Job) Line() string {
	line := j.Schedule + " " + j.Command
	if j.Log != "" {
		line += " >> " + j.Log + " 2>&1"
	}
	if j.Tag != "" {
		line += " " + j.Tag
	}
	return line
}

// Table provides whole-table access to a user's scheduled jobs. It exists so
// the read-modify-write cycle can be tested without a real cron daemon.
type Table interface {
	// Read returns the current table contents. A user without a table reads
	// as empty, not as an error.
	Read(ctx context.Context) (string, error)
	// Write replaces the whole table with contents.
	Write(ctx context.Context, contents string) error
}

// ForUser returns a [Table] backed by the system crontab of the given user,
// accessed through the crontab binary.
func ForUser(r execx.Runner, user string) Table {
	return &systemTable{r: r, user: user}
}

type systemTable struct {
	r    execx.Runner
	user string
}

func (t *systemTable) Read(ctx context.Context) (string, error) {
	out, err := t.r.Run(ctx, execx.Cmd{Name: "crontab", Args: []string{"-l", "-u", t.user}})
	if err != nil {
		// "no crontab for <user>" is an empty table, not a failure.
		var ee *execx.Error
		if errors.As(err, &ee) && strings.Contains(ee.Stderr, "no crontab") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

func (t *systemTable) Write(ctx context.Context, contents string) error {
	_, err := t.r.Run(ctx, execx.Cmd{
		Name:  "crontab",
		Args:  []string{"-u", t.user, "-"},
		Stdin: strings.NewReader(contents),
	})
	return err
}

// Mem is an in-memory [Table] for tests.
type Mem struct {
	Contents string
}

func (t *Mem) Read(context.Context) (string, error) { return t.Contents, nil }

func (t *Mem) Write(_ context.Context, contents string) error {
	t.Contents = contents
	return nil
}

// Reconcile computes the new table contents from the existing ones: every
// line containing any of the markers is dropped, every other line is kept
// unchanged in its original order, and the desired jobs are appended at the
// end. Running Reconcile on its own output yields the same table again.
func Reconcile(existing string, markers []string, jobs []Job) string {
	var sb strings.Builder

	for _, line := range splitLines(existing) {
		if owned(line, markers) {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	for _, j := range jobs {
		sb.WriteString(j.Line())
		sb.WriteString("\n")
	}

	return sb.String()
}

func owned(line string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
