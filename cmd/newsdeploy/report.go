// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.astrophena.name/dailynews/internal/store"
)

// status is the outcome of a single reconciliation step.
type status string

const (
	statusOK      status = "ok"
	statusWarn    status = "warn"
	statusFatal   status = "fatal"
	statusSkipped status = "skipped"
)

// stepResult is the explicit per-step result that replaces silently discarded
// exit statuses: the step's outcome is recorded and reported instead of being
// swallowed.
type stepResult struct {
	Name    string `json:"name"`
	Status  status `json:"status"`
	Message string `json:"message,omitempty"`
}

func ok(name, format string, args ...any) stepResult {
	return stepResult{Name: name, Status: statusOK, Message: fmt.Sprintf(format, args...)}
}

func warn(name, format string, args ...any) stepResult {
	return stepResult{Name: name, Status: statusWarn, Message: fmt.Sprintf(format, args...)}
}

func skipped(name, format string, args ...any) stepResult {
	return stepResult{Name: name, Status: statusSkipped, Message: fmt.Sprintf(format, args...)}
}

// runReport aggregates step results for one reconciliation run.
type runReport struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Steps    []stepResult  `json:"steps"`
}

func (r *runReport) add(res stepResult) { r.Steps = append(r.Steps, res) }

// converged reports whether every step finished without a warning or failure.
func (r *runReport) converged() bool {
	for _, s := range r.Steps {
		if s.Status != statusOK && s.Status != statusSkipped {
			return false
		}
	}
	return true
}

func (r *runReport) summary(w io.Writer) {
	var counts [4]int
	for _, s := range r.Steps {
		switch s.Status {
		case statusOK:
			counts[0]++
		case statusWarn:
			counts[1]++
		case statusFatal:
			counts[2]++
		case statusSkipped:
			counts[3]++
		}
	}
	state := "converged"
	if !r.converged() {
		state = "degraded"
	}
	fmt.Fprintf(w, "\n%s: %d ok, %d warnings, %d fatal, %d skipped (%s)\n",
		state, counts[0], counts[1], counts[2], counts[3], r.Duration.Round(time.Millisecond))
}

// save persists the report to the run history store, keyed by start time.
// History is informational only, so failures here are the caller's to log, not
// to act on.
func (r *runReport) save(ctx context.Context, s store.Store) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.Set(ctx, r.Start.UTC().Format(time.RFC3339), b)
}
