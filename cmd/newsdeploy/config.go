// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.astrophena.name/dailynews/internal/crontab"
	"go.astrophena.name/dailynews/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

//go:embed deploy.star
var defaultConfig string

// desiredState is the declared target state of the host, parsed from a
// deploy.star file. It is immutable for the duration of a run.
type desiredState struct {
	account  string
	repo     string
	packages []*pkg
	remotes  []*remoteSpec
	jobs     []*jobSpec
	markers  []string
}

// pkg is a required OS package. Presence is probed by looking up the probe
// binary on PATH, not by asking the package manager for a version.
type pkg struct {
	Name  string
	Probe string // binary to look up; defaults to Name
}

func (p *pkg) String() string        { return fmt.Sprintf("<package name=%q>", p.Name) }
func (p *pkg) Type() string          { return "package" }
func (p *pkg) Freeze()               {} // immutable
func (p *pkg) Truth() starlark.Bool  { return starlark.Bool(p.Name != "") }
func (p *pkg) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", p.Type()) }

func (p *pkg) probe() string {
	if p.Probe != "" {
		return p.Probe
	}
	return p.Name
}

func pkgBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	p := new(pkg)
	if err := starlark.UnpackArgs("package", args, kwargs,
		"name", &p.Name,
		"probe?", &p.Probe,
	); err != nil {
		return nil, err
	}
	return p, nil
}

// remoteSpec is a git remote target. The key attributes name entries in the
// deploy path's .env file from which the remote's URL and credentials are
// derived on every run.
type remoteSpec struct {
	Name       string
	DefaultURL string
	URLKey     string
	UserKey    string
	SecretKey  string
	SSHKey     string
}

func (r *remoteSpec) String() string        { return fmt.Sprintf("<remote name=%q>", r.Name) }
func (r *remoteSpec) Type() string          { return "remote" }
func (r *remoteSpec) Freeze()               {} // immutable
func (r *remoteSpec) Truth() starlark.Bool  { return starlark.Bool(r.Name != "") }
func (r *remoteSpec) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", r.Type()) }

func remoteBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r := new(remoteSpec)
	if err := starlark.UnpackArgs("remote", args, kwargs,
		"name", &r.Name,
		"default_url", &r.DefaultURL,
		"url_key?", &r.URLKey,
		"user_key?", &r.UserKey,
		"secret_key?", &r.SecretKey,
		"ssh_key?", &r.SSHKey,
	); err != nil {
		return nil, err
	}
	return r, nil
}

// jobSpec is a scheduled job. The {path} placeholder in Command and Log is
// replaced with the deploy path when the job is rendered.
type jobSpec struct {
	Schedule string
	Command  string
	Log      string
	Tag      string
}

func (j *jobSpec) String() string        { return fmt.Sprintf("<job schedule=%q>", j.Schedule) }
func (j *jobSpec) Type() string          { return "job" }
func (j *jobSpec) Freeze()               {} // immutable
func (j *jobSpec) Truth() starlark.Bool  { return starlark.Bool(j.Command != "") }
func (j *jobSpec) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", j.Type()) }

// render resolves the {path} placeholder into a concrete crontab job.
func (j *jobSpec) render(path string) crontab.Job {
	expand := func(s string) string { return strings.ReplaceAll(s, "{path}", path) }
	return crontab.Job{
		Schedule: j.Schedule,
		Command:  expand(j.Command),
		Log:      expand(j.Log),
		Tag:      j.Tag,
	}
}

func jobBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	j := new(jobSpec)
	if err := starlark.UnpackArgs("job", args, kwargs,
		"schedule", &j.Schedule,
		"command", &j.Command,
		"log?", &j.Log,
		"tag?", &j.Tag,
	); err != nil {
		return nil, err
	}
	return j, nil
}

func parseConfig(logf logger.Logf, src string) (*desiredState, error) {
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Print: func(_ *starlark.Thread, msg string) { logf("%s", msg) },
		},
		"deploy.star",
		src,
		starlark.StringDict{
			"package": starlark.NewBuiltin("package", pkgBuiltin),
			"remote":  starlark.NewBuiltin("remote", remoteBuiltin),
			"job":     starlark.NewBuiltin("job", jobBuiltin),
		},
	)
	if err != nil {
		return nil, err
	}

	ds := new(desiredState)

	account, ok := globals["account"].(starlark.String)
	if !ok || account.GoString() == "" {
		return nil, errors.New("account must be defined and be a non-empty string")
	}
	ds.account = account.GoString()

	repo, ok := globals["repo"].(starlark.String)
	if !ok || repo.GoString() == "" {
		return nil, errors.New("repo must be defined and be a non-empty string")
	}
	ds.repo = repo.GoString()
	if _, err := url.Parse(ds.repo); err != nil {
		return nil, fmt.Errorf("invalid repo URL %q", ds.repo)
	}

	for p := range listElements[*pkg](globals, "packages") {
		ds.packages = append(ds.packages, p)
	}
	for r := range listElements[*remoteSpec](globals, "remotes") {
		ds.remotes = append(ds.remotes, r)
	}
	for j := range listElements[*jobSpec](globals, "jobs") {
		ds.jobs = append(ds.jobs, j)
	}

	markersList, ok := globals["markers"].(*starlark.List)
	if !ok {
		return nil, errors.New("markers must be defined and be a list")
	}
	for elem := range markersList.Elements() {
		s, ok := elem.(starlark.String)
		if !ok || s.GoString() == "" {
			continue
		}
		ds.markers = append(ds.markers, s.GoString())
	}
	if len(ds.jobs) > 0 && len(ds.markers) == 0 {
		return nil, errors.New("markers must not be empty when jobs are declared")
	}

	return ds, nil
}

// listElements iterates over elements of type T in the global list named name.
// A missing global or elements of another type are skipped.
func listElements[T starlark.Value](globals starlark.StringDict, name string) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		list, ok := globals[name].(*starlark.List)
		if !ok {
			return
		}
		for elem := range list.Elements() {
			v, ok := elem.(T)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}
