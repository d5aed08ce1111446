// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/dailynews/internal/atomicio"
	"go.astrophena.name/dailynews/internal/cli"
	"go.astrophena.name/dailynews/internal/execx"
	"go.astrophena.name/dailynews/internal/gitx"
	"go.astrophena.name/dailynews/internal/logger"
	"go.astrophena.name/dailynews/internal/request"

	"github.com/mmcdole/gofeed"
)

const tgAPI = "https://api.telegram.org"

func main() { cli.Main(new(fetcher)) }

type fetcher struct {
	init sync.Once

	// flags
	dry bool
	dir string

	// configuration
	geminiKey string
	tgToken   string
	chatID    string

	// mocked in tests
	now       func() time.Time
	runner    execx.Runner
	httpc     *http.Client
	feeds     map[string]string
	summarize func(ctx context.Context, apiKey, digest string) (string, error)
	tgAPI     string

	fp       *gofeed.Parser
	git      *gitx.Git
	logf     logger.Logf
	scrubber *strings.Replacer
}

func (f *fetcher) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&f.dry, "dry", false, "Enable dry-run mode: log actions, but don't write, commit or push anything.")
	fs.StringVar(&f.dir, "dir", ".", "Repository `directory` to publish the digest into.")
}

func (f *fetcher) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	f.geminiKey = cmp.Or(f.geminiKey, env.Getenv("GEMINI_API_KEY"))
	f.tgToken = cmp.Or(f.tgToken, env.Getenv("TELEGRAM_TOKEN"))
	f.chatID = cmp.Or(f.chatID, env.Getenv("CHAT_ID"))

	f.init.Do(func() { f.doInit(ctx) })

	if err := f.run(ctx); err != nil {
		return f.errNotify(ctx, err)
	}
	return nil
}

func (f *fetcher) doInit(ctx context.Context) {
	env := cli.GetEnv(ctx)
	f.logf = env.Logf

	if f.now == nil {
		f.now = time.Now
	}
	if f.httpc == nil {
		f.httpc = request.DefaultClient
	}
	if f.runner == nil {
		f.runner = execx.New(f.logf)
	}
	if f.feeds == nil {
		f.feeds = defaultFeeds
	}
	if f.summarize == nil {
		f.summarize = geminiSummarize
	}
	if f.tgAPI == "" {
		f.tgAPI = tgAPI
	}

	f.fp = gofeed.NewParser()
	f.fp.Client = f.httpc
	f.git = gitx.New(f.runner)

	if f.tgToken != "" {
		f.scrubber = strings.NewReplacer(f.tgToken, "[EXPUNGED]")
	}
}

func (f *fetcher) run(ctx context.Context) error {
	now := f.now()
	cutoff := now.Add(-timeframe(now))
	f.logf("Fetching articles published after %s.", cutoff.Format(time.DateTime))

	articles := f.fetchArticles(ctx, cutoff)
	f.logf("Found %d articles.", len(articles))

	date := now.Format(time.DateOnly)
	digest := renderDigest(articles, date)

	if f.geminiKey != "" && len(articles) > 0 {
		summary, err := f.summarize(ctx, f.geminiKey, digest)
		if err != nil {
			f.logf("Summarization failed, publishing the plain digest: %v", err)
		} else {
			digest = insertSummary(digest, summary)
		}
	}

	if f.dry {
		f.logf("Dry run, not writing %s.md:\n%s", date, digest)
		return nil
	}

	filename := date + ".md"
	if err := os.MkdirAll(filepath.Join(f.dir, "newsitems"), 0o755); err != nil {
		return err
	}
	if err := atomicio.WriteFile(filepath.Join(f.dir, "newsitems", filename), []byte(digest), 0o644); err != nil {
		return err
	}
	f.logf("Wrote newsitems/%s.", filename)

	readme := filepath.Join(f.dir, "README.md")
	cur, err := os.ReadFile(readme)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	updated, changed := updateReadme(string(cur), date, filename)
	if changed {
		if err := atomicio.WriteFile(readme, []byte(updated), 0o644); err != nil {
			return err
		}
		f.logf("Updated README.md.")
	}

	f.commitAndPush(ctx, date)
	return nil
}

// timeframe returns how far back articles are collected: 72 hours on Mondays
// to cover the weekend, 24 hours otherwise.
func timeframe(now time.Time) time.Duration {
	if now.Weekday() == time.Monday {
		return 72 * time.Hour
	}
	return 24 * time.Hour
}

// commitAndPush publishes the digest to the configured remotes. Every git
// failure here is a warning: the digest is already on disk and the next run
// will pick up the uncommitted changes.
func (f *fetcher) commitAndPush(ctx context.Context, date string) {
	if !f.git.IsRepo(ctx, f.dir) {
		f.logf("Not a git repository, skipping git operations.")
		return
	}

	changed, err := f.git.HasChanges(ctx, f.dir)
	if err != nil {
		f.logf("Checking for changes: %v", err)
		return
	}
	if !changed {
		f.logf("No changes to commit.")
		return
	}

	if err := f.git.Add(ctx, f.dir, "newsitems", "README.md"); err != nil {
		f.logf("Staging changes: %v", err)
		return
	}
	if err := f.git.Commit(ctx, f.dir, "Daily news update - "+date); err != nil {
		f.logf("Committing: %v", err)
		return
	}

	branch, err := f.git.CurrentBranch(ctx, f.dir)
	if err != nil {
		f.logf("Resolving current branch: %v", err)
		return
	}

	remotes, err := f.git.Remotes(ctx, f.dir)
	if err != nil {
		f.logf("Listing remotes: %v", err)
		return
	}
	for _, remote := range []string{"origin", "github"} {
		if !slices.Contains(remotes, remote) {
			continue
		}
		if err := f.git.Push(ctx, f.dir, remote, branch); err != nil {
			f.logf("Pushing to %s: %v", remote, err)
			continue
		}
		f.logf("Pushed to %s.", remote)
	}
}

// errNotify reports err to the configured Telegram chat, if any, and returns
// err unchanged for the caller.
func (f *fetcher) errNotify(ctx context.Context, err error) error {
	if f.tgToken == "" || f.chatID == "" {
		return err
	}

	msg := err.Error()
	if f.scrubber != nil {
		msg = f.scrubber.Replace(msg)
	}
	if _, serr := request.Make[any](ctx, request.Params{
		Method: http.MethodPost,
		URL:    f.tgAPI + "/bot" + f.tgToken + "/sendMessage",
		Body: map[string]string{
			"chat_id": f.chatID,
			"text":    fmt.Sprintf("❌ newsfetch failed: %s", msg),
		},
		HTTPClient: f.httpc,
		Scrubber:   f.scrubber,
	}); serr != nil {
		f.logf("Failed to send error notification: %v", serr)
	}
	return err
}
