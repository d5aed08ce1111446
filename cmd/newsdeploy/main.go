// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.astrophena.name/dailynews/internal/cli"
	"go.astrophena.name/dailynews/internal/cli/envflag"
	"go.astrophena.name/dailynews/internal/crontab"
	"go.astrophena.name/dailynews/internal/execx"
	"go.astrophena.name/dailynews/internal/filelock"
	"go.astrophena.name/dailynews/internal/gitx"
	"go.astrophena.name/dailynews/internal/logger"
	"go.astrophena.name/dailynews/internal/store"
	"go.astrophena.name/dailynews/internal/systemd"
)

const defaultDeployPath = "/opt/dailynews"

var (
	errNotRoot        = errors.New("newsdeploy must run as root")
	errAlreadyRunning = errors.New("another newsdeploy run is in progress")
)

func main() { cli.Main(new(reconciler)) }

type reconciler struct {
	// flags
	configPath string
	strict     bool
	user       *string

	// resolved per run
	cfg  *desiredState
	path string

	// injected in tests
	runner   execx.Runner
	table    crontab.Table
	geteuid  func() int
	lockPath string
	history  store.Store
	now      func() time.Time

	git  *gitx.Git
	logf logger.Logf

	// report of the last run, kept for inspection in tests
	report *runReport
}

func (r *reconciler) Flags(fs *flag.FlagSet) {
	fs.StringVar(&r.configPath, "config", "", "Load desired state from `file` instead of the built-in configuration.")
	fs.BoolVar(&r.strict, "strict", false, "Abort on the first failed step instead of continuing.")
	r.user = envflag.Value("user", "DEPLOY_USER", "", "Service account `name`, overriding the configuration.", fs, os.Getenv)
}

func (r *reconciler) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	r.logf = env.Logf

	if len(env.Args) > 1 {
		return fmt.Errorf("%w: at most one deploy path is accepted", cli.ErrInvalidArgs)
	}
	r.path = defaultDeployPath
	if len(env.Args) == 1 {
		r.path = env.Args[0]
	}

	src := defaultConfig
	if r.configPath != "" {
		b, err := os.ReadFile(r.configPath)
		if err != nil {
			return err
		}
		src = string(b)
	}
	cfg, err := parseConfig(r.logf, src)
	if err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}
	r.cfg = cfg
	if *r.user != "" {
		r.cfg.account = *r.user
	}

	if r.geteuid == nil {
		r.geteuid = os.Geteuid
	}
	if r.runner == nil {
		r.runner = execx.New(r.logf)
	}
	r.git = gitx.New(r.runner)
	if r.table == nil {
		r.table = crontab.ForUser(r.runner, r.cfg.account)
	}
	if r.now == nil {
		r.now = time.Now
	}

	// Preflight. Failures here abort before anything is mutated.
	if r.geteuid() != 0 {
		return errNotRoot
	}
	if r.lockPath == "" {
		r.lockPath = "/run/newsdeploy.lock"
	}
	// The crontab rewrite is read-modify-write without isolation, so two
	// overlapping runs must never race it.
	lock, err := filelock.Acquire(r.lockPath, strconv.Itoa(os.Getpid()))
	if err != nil {
		if errors.Is(err, filelock.ErrAlreadyLocked) {
			return errAlreadyRunning
		}
		return err
	}
	defer lock.Release()

	report := &runReport{Start: r.now()}
	r.report = report

	steps := []struct {
		run func(context.Context) stepResult
		// escalate marks steps whose warnings become fatal under -strict.
		// Verification is read-only and runs after everything has committed,
		// so it never escalates.
		escalate bool
	}{
		{r.reconcilePackages, true},
		{r.reconcileAccount, true},
		{r.reconcileLayout, true},
		{r.reconcileRepo, true},
		{r.reconcileCredentials, true},
		{r.reconcileRemotes, true},
		{r.reconcileCrontab, true},
		{r.verify, false},
	}

	var fatal error
	for _, step := range steps {
		res := step.run(ctx)
		if r.strict && step.escalate && res.Status == statusWarn {
			res.Status = statusFatal
		}
		report.add(res)
		fmt.Fprintf(env.Stdout, "%-12s %-8s %s\n", res.Name, res.Status, res.Message)
		if res.Status == statusFatal {
			fatal = fmt.Errorf("step %s failed: %s", res.Name, res.Message)
			break
		}
	}
	report.Duration = r.now().Sub(report.Start)
	report.summary(env.Stdout)

	r.saveHistory(ctx, report)
	systemd.Notify(r.logf, systemd.Ready)

	return fatal
}

// saveHistory appends the report to the run history kept under the deploy
// path. History is informational, so every failure here degrades to a log
// line.
func (r *reconciler) saveHistory(ctx context.Context, report *runReport) {
	s := r.history
	if s == nil {
		var err error
		s, err = store.NewJSONFile(filepath.Join(r.path, ".deploy-history.json"))
		if err != nil {
			r.logf("Failed to open run history: %v", err)
			return
		}
		defer s.Close()
	}
	if err := report.save(ctx, s); err != nil {
		r.logf("Failed to save run history: %v", err)
	}
}
