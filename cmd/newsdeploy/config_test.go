// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"strings"
	"testing"

	"go.astrophena.name/dailynews/internal/crontab"
	"go.astrophena.name/dailynews/internal/testutil"
)

func TestParseDefaultConfig(t *testing.T) {
	t.Parallel()

	ds, err := parseConfig(t.Logf, defaultConfig)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, ds.account, "newsbot")
	testutil.AssertEqual(t, ds.repo, "https://git.sweet6.net/Sweet6/DailyNews")
	testutil.AssertEqual(t, ds.markers, []string{"# dailynews", "newsfetch"})

	var pkgs []string
	for _, p := range ds.packages {
		pkgs = append(pkgs, p.Name)
	}
	testutil.AssertEqual(t, pkgs, []string{"git", "cron", "curl"})
	// cron is probed by its binary, not its package name.
	testutil.AssertEqual(t, ds.packages[1].probe(), "crontab")
	testutil.AssertEqual(t, ds.packages[0].probe(), "git")

	var remotes []string
	for _, r := range ds.remotes {
		remotes = append(remotes, r.Name)
	}
	testutil.AssertEqual(t, remotes, []string{"origin", "github"})
	testutil.AssertEqual(t, ds.remotes[1].DefaultURL, "https://github.com/sweets9/DailyNews.git")
	testutil.AssertEqual(t, ds.remotes[1].SecretKey, "GITHUB_TOKEN")

	if len(ds.jobs) != 2 {
		t.Fatalf("want 2 jobs, got %d", len(ds.jobs))
	}
	testutil.AssertEqual(t, ds.jobs[0].render("/opt/dailynews"), crontab.Job{
		Schedule: "30 6 * * *",
		Command:  "cd /opt/dailynews && ./newsfetch",
		Log:      "/opt/dailynews/news.log",
		Tag:      "# dailynews",
	})
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		config  string
		wantErr string
	}{
		"missing account": {
			config:  `repo = "https://example.com/r"`,
			wantErr: "account must be defined",
		},
		"missing repo": {
			config:  `account = "newsbot"`,
			wantErr: "repo must be defined",
		},
		"missing markers": {
			config: `
account = "newsbot"
repo = "https://example.com/r"
jobs = [job(schedule = "* * * * *", command = "true")]
`,
			wantErr: "markers must be defined",
		},
		"jobs without markers": {
			config: `
account = "newsbot"
repo = "https://example.com/r"
jobs = [job(schedule = "* * * * *", command = "true")]
markers = []
`,
			wantErr: "markers must not be empty",
		},
		"syntax error": {
			config:  `account = `,
			wantErr: "deploy.star",
		},
		"builtin misuse": {
			config: `
account = "newsbot"
repo = "https://example.com/r"
remotes = [remote(name = "origin")]
markers = ["x"]
`,
			wantErr: "remote",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(t.Logf, tc.config)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q must contain %q", err, tc.wantErr)
			}
		})
	}
}
