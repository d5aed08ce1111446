// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package gitx performs git operations by shelling out to the git binary
// through an [execx.Runner].
package gitx

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.astrophena.name/dailynews/internal/execx"
)

// Git runs git commands against working copies.
type Git struct {
	r execx.Runner
}

// New returns a [Git] that invokes the git binary through r.
func New(r execx.Runner) *Git { return &Git{r: r} }

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	return g.r.Run(ctx, execx.Cmd{Name: "git", Args: args, Dir: dir})
}

// IsRepo reports whether dir is inside a git working copy.
func (g *Git) IsRepo(ctx context.Context, dir string) bool {
	_, err := g.run(ctx, dir, "rev-parse", "--git-dir")
	return err == nil
}

// Clone clones the repository at url into dir.
func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := g.r.Run(ctx, execx.Cmd{
		Name:   "git",
		Args:   []string{"clone", url, dir},
		Redact: urlSecrets(url),
	})
	return err
}

// DefaultBranch returns the name of the remote's default branch, falling back
// to "main" when the remote HEAD is not recorded locally.
func (g *Git) DefaultBranch(ctx context.Context, dir, remote string) string {
	out, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", remote+"/HEAD")
	if err != nil {
		return "main"
	}
	branch := strings.TrimSpace(out)
	branch = strings.TrimPrefix(branch, remote+"/")
	if branch == "" || branch == "HEAD" {
		return "main"
	}
	return branch
}

// SyncHard fetches remote and hard-resets the working copy in dir to the tip
// of the remote's default branch, discarding local changes and local-only
// commits. The remote is the source of truth.
func (g *Git) SyncHard(ctx context.Context, dir, remote string) error {
	if _, err := g.run(ctx, dir, "fetch", remote); err != nil {
		return err
	}
	branch := g.DefaultBranch(ctx, dir, remote)
	_, err := g.run(ctx, dir, "reset", "--hard", remote+"/"+branch)
	return err
}

// Remotes returns the names of all configured remotes in dir.
func (g *Git) Remotes(ctx context.Context, dir string) ([]string, error) {
	out, err := g.run(ctx, dir, "remote")
	if err != nil {
		return nil, err
	}
	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			remotes = append(remotes, line)
		}
	}
	return remotes, nil
}

// SetRemoteURL points the named remote at url, adding the remote if it does
// not exist yet. Repeated calls with the same URL converge to the same state.
func (g *Git) SetRemoteURL(ctx context.Context, dir, name, url string) error {
	cmd := execx.Cmd{
		Name:   "git",
		Args:   []string{"remote", "set-url", name, url},
		Dir:    dir,
		Redact: urlSecrets(url),
	}
	if _, err := g.r.Run(ctx, cmd); err == nil {
		return nil
	}
	cmd.Args = []string{"remote", "add", name, url}
	_, err := g.r.Run(ctx, cmd)
	return err
}

// Fetch fetches from the named remote. It is used as a connectivity probe:
// the caller decides whether a failure matters.
func (g *Git) Fetch(ctx context.Context, dir, remote string) error {
	_, err := g.run(ctx, dir, "fetch", remote)
	return err
}

// LsRemote queries the named remote for its HEAD without fetching. It is a
// read-only reachability check.
func (g *Git) LsRemote(ctx context.Context, dir, remote string) error {
	_, err := g.run(ctx, dir, "ls-remote", "--exit-code", remote, "HEAD")
	return err
}

// HasChanges reports whether the working copy in dir has uncommitted changes
// or untracked files.
func (g *Git) HasChanges(ctx context.Context, dir string) (bool, error) {
	out, err := g.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Add stages the given paths in dir.
func (g *Git) Add(ctx context.Context, dir string, paths ...string) error {
	_, err := g.run(ctx, dir, append([]string{"add"}, paths...)...)
	return err
}

// Commit records a commit with the given message.
func (g *Git) Commit(ctx context.Context, dir, message string) error {
	_, err := g.run(ctx, dir, "commit", "-m", message)
	return err
}

// Push pushes branch to the named remote.
func (g *Git) Push(ctx context.Context, dir, remote, branch string) error {
	_, err := g.run(ctx, dir, "push", remote, branch)
	return err
}

// CurrentBranch returns the name of the currently checked out branch in dir.
func (g *Git) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AuthURL embeds the given username and secret into base, which must be an
// absolute http or https URL. Any credentials already embedded in base are
// replaced: the credentials file is the source of truth, and secrets may have
// rotated since the URL was last derived.
func AuthURL(base, username, secret string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("bad remote URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("bad remote URL %q: embedding credentials requires http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("bad remote URL %q: missing host", base)
	}
	u.User = url.UserPassword(username, secret)
	return u.String(), nil
}

// urlSecrets returns the credential strings embedded in rawurl, in both raw
// and URL-escaped form, for use as [execx.Cmd] redaction targets.
func urlSecrets(rawurl string) []string {
	u, err := url.Parse(rawurl)
	if err != nil || u.User == nil {
		return nil
	}
	pw, ok := u.User.Password()
	if !ok || pw == "" {
		return nil
	}
	// Password returns the decoded form; User.String carries the escaped one
	// that appears in the command line.
	return []string{pw, u.User.String()}
}
