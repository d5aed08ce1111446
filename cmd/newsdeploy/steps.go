// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/dailynews/internal/atomicio"
	"go.astrophena.name/dailynews/internal/crontab"
	"go.astrophena.name/dailynews/internal/envfile"
	"go.astrophena.name/dailynews/internal/execx"
	"go.astrophena.name/dailynews/internal/gitx"
)

// Each reconcile method below is one step of the run: it re-probes observed
// state, converges it to the desired state and reports an explicit result.
// Observed state is never cached between runs.

func (r *reconciler) reconcilePackages(ctx context.Context) stepResult {
	const name = "packages"

	var missing []string
	for _, p := range r.cfg.packages {
		if _, err := r.runner.LookPath(p.probe()); err != nil {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) == 0 {
		return ok(name, "all packages present")
	}

	// The index update runs at most once per run, and only when something is
	// actually missing. An install may still succeed against a stale index, so
	// an update failure alone doesn't decide the step's outcome.
	var updateErr error
	if _, err := r.runner.Run(ctx, execx.Cmd{Name: "apt-get", Args: []string{"update"}}); err != nil {
		updateErr = err
	}

	args := append([]string{"install", "-y"}, missing...)
	if _, err := r.runner.Run(ctx, execx.Cmd{Name: "apt-get", Args: args}); err != nil {
		return warn(name, "installing %s: %v", strings.Join(missing, ", "), err)
	}
	if updateErr != nil {
		return warn(name, "installed %s, but the index update failed: %v", strings.Join(missing, ", "), updateErr)
	}
	return ok(name, "installed %s", strings.Join(missing, ", "))
}

func (r *reconciler) reconcileAccount(ctx context.Context) stepResult {
	const name = "account"

	if _, err := r.runner.Run(ctx, execx.Cmd{Name: "id", Args: []string{r.cfg.account}}); err == nil {
		return ok(name, "account %s exists", r.cfg.account)
	}
	if _, err := r.runner.Run(ctx, execx.Cmd{
		Name: "useradd",
		Args: []string{"--system", "--create-home", r.cfg.account},
	}); err != nil {
		return warn(name, "creating account %s: %v", r.cfg.account, err)
	}
	return ok(name, "created account %s", r.cfg.account)
}

func (r *reconciler) reconcileLayout(ctx context.Context) stepResult {
	const name = "layout"

	for _, dir := range []string{r.path, filepath.Join(r.path, "newsitems")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return warn(name, "creating %s: %v", dir, err)
		}
	}
	if err := r.chown(ctx, r.path); err != nil {
		return warn(name, "changing ownership of %s: %v", r.path, err)
	}
	return ok(name, "%s ready", r.path)
}

func (r *reconciler) chown(ctx context.Context, path string) error {
	_, err := r.runner.Run(ctx, execx.Cmd{
		Name: "chown",
		Args: []string{"-R", r.cfg.account + ":" + r.cfg.account, path},
	})
	return err
}

func (r *reconciler) reconcileRepo(ctx context.Context) stepResult {
	const name = "repository"

	var (
		action string
		err    error
	)
	if r.git.IsRepo(ctx, r.path) {
		// The remote is the source of truth: local changes and local-only
		// commits are discarded.
		action, err = "updated", r.git.SyncHard(ctx, r.path, "origin")
	} else {
		action, err = "cloned", r.git.Clone(ctx, r.cfg.repo, r.path)
	}
	if err != nil {
		return warn(name, "syncing from %s: %v", r.cfg.repo, err)
	}
	if err := r.chown(ctx, r.path); err != nil {
		return warn(name, "changing ownership of %s: %v", r.path, err)
	}
	return ok(name, "%s from %s", action, r.cfg.repo)
}

func (r *reconciler) reconcileCredentials(ctx context.Context) stepResult {
	const name = "credentials"

	envPath := filepath.Join(r.path, ".env")
	if _, err := os.Stat(envPath); err == nil {
		// Never overwrite credentials a human has since filled in.
		return ok(name, ".env present, left untouched")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return warn(name, "checking %s: %v", envPath, err)
	}

	tmpl, err := os.ReadFile(filepath.Join(r.path, ".env.example"))
	if err != nil {
		return warn(name, "reading template: %v", err)
	}
	if err := atomicio.WriteFile(envPath, tmpl, 0o600); err != nil {
		return warn(name, "writing %s: %v", envPath, err)
	}
	if err := r.chown(ctx, envPath); err != nil {
		return warn(name, "changing ownership of %s: %v", envPath, err)
	}
	return ok(name, ".env created from template, fill in credentials")
}

func (r *reconciler) reconcileRemotes(ctx context.Context) stepResult {
	const name = "remotes"

	creds, err := envfile.Load(filepath.Join(r.path, ".env"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return skipped(name, "no .env file, remotes left unconfigured")
		}
		return warn(name, "reading .env: %v", err)
	}

	// Secret values must never reach logs or the report.
	scrub := credScrubber(creds, r.cfg.remotes)

	var configured, untouched, missing, failed []string
	for _, spec := range r.cfg.remotes {
		target := creds.GetDefault(spec.URLKey, spec.DefaultURL)

		if spec.SSHKey != "" && creds.GetBool(spec.SSHKey) {
			// An SSH remote authenticates via the account's key. Without an
			// explicit URL override there is nothing to derive, and the
			// manually configured remote must not be clobbered with the
			// https default.
			if creds.Get(spec.URLKey) == "" {
				untouched = append(untouched, spec.Name)
				continue
			}
		} else {
			user, secret := creds.Get(spec.UserKey), creds.Get(spec.SecretKey)
			if user == "" || secret == "" {
				missing = append(missing, spec.Name)
				continue
			}
			// Always re-derive from the current credentials, even when the
			// remote looks configured: secrets may have rotated.
			target, err = gitx.AuthURL(target, user, secret)
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s (%v)", spec.Name, scrub.Replace(err.Error())))
				continue
			}
		}

		if err := r.git.SetRemoteURL(ctx, r.path, spec.Name, target); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", spec.Name, scrub.Replace(err.Error())))
			continue
		}
		configured = append(configured, spec.Name)
	}

	var probe string
	if len(configured) > 0 {
		primary := r.cfg.remotes[0].Name
		// Diagnostic only: connectivity problems are reported, never fatal.
		if err := r.git.Fetch(ctx, r.path, primary); err != nil {
			probe = fmt.Sprintf("; probe fetch of %s failed: %v", primary, scrub.Replace(err.Error()))
		} else {
			probe = fmt.Sprintf("; probe fetch of %s ok", primary)
		}
	}

	msg := fmt.Sprintf("configured %s", joinOrNone(configured)) + probe
	if len(untouched) > 0 {
		msg += fmt.Sprintf("; %s uses ssh, left untouched", strings.Join(untouched, ", "))
	}
	switch {
	case len(failed) > 0:
		return warn(name, "%s; failed: %s", msg, strings.Join(failed, ", "))
	case len(missing) > 0:
		return warn(name, "%s; no credentials for %s, skipped", msg, strings.Join(missing, ", "))
	}
	return ok(name, "%s", msg)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// credScrubber builds a replacer expunging every secret value the remote
// specs reference in creds.
func credScrubber(creds envfile.Env, remotes []*remoteSpec) *strings.Replacer {
	var pairs []string
	for _, spec := range remotes {
		if secret := creds.Get(spec.SecretKey); secret != "" {
			pairs = append(pairs, secret, "[EXPUNGED]")
		}
	}
	return strings.NewReplacer(pairs...)
}

func (r *reconciler) reconcileCrontab(ctx context.Context) stepResult {
	const name = "crontab"

	existing, err := r.table.Read(ctx)
	if err != nil {
		return warn(name, "reading crontab of %s: %v", r.cfg.account, err)
	}

	jobs := make([]crontab.Job, 0, len(r.cfg.jobs))
	for _, j := range r.cfg.jobs {
		jobs = append(jobs, j.render(r.path))
	}

	next := crontab.Reconcile(existing, r.cfg.markers, jobs)
	if next == existing {
		return ok(name, "%d jobs already installed", len(jobs))
	}
	if err := r.table.Write(ctx, next); err != nil {
		return warn(name, "writing crontab of %s: %v", r.cfg.account, err)
	}
	return ok(name, "installed %d jobs", len(jobs))
}

// verify re-reads the host state after all mutating steps committed. A failed
// check is reported, never escalated: there is nothing to roll back.
func (r *reconciler) verify(ctx context.Context) stepResult {
	const name = "verify"

	var failures []string

	if len(r.cfg.markers) > 0 {
		tab, err := r.table.Read(ctx)
		if err != nil || !strings.Contains(tab, r.cfg.markers[0]) {
			failures = append(failures, "crontab marker missing")
		}
	}
	if _, err := os.Stat(filepath.Join(r.path, ".env")); err != nil {
		failures = append(failures, ".env missing")
	}
	if len(r.cfg.remotes) > 0 {
		primary := r.cfg.remotes[0].Name
		if err := r.git.LsRemote(ctx, r.path, primary); err != nil {
			failures = append(failures, fmt.Sprintf("remote %s unreachable", primary))
		}
	}

	if len(failures) > 0 {
		return warn(name, "%s", strings.Join(failures, "; "))
	}
	return ok(name, "all checks passed")
}
