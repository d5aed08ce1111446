// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"strings"
	"testing"
	"time"

	"go.astrophena.name/dailynews/internal/testutil"
)

func TestRenderDigest(t *testing.T) {
	t.Parallel()

	t.Run("no articles", func(t *testing.T) {
		got := renderDigest(nil, "2025-06-01")
		want := "# Cyber Security News - 2025-06-01\n\n" +
			"*No new articles found in the last 24 hours.*\n"
		testutil.AssertEqual(t, got, want)
	})

	articles := []article{
		{
			Title:     "Critical flaw exploited",
			Summary:   "<p>A critical flaw is exploited.</p>",
			Link:      "https://example.com/critical",
			Published: time.Date(2025, time.June, 1, 5, 0, 0, 0, time.UTC),
			Source:    "Test Feed",
		},
	}
	got := renderDigest(articles, "2025-06-01")
	want := "# Cyber Security News - 2025-06-01\n\n" +
		"*1 articles found*\n\n---\n\n" +
		"## **Critical flaw exploited**\n\n" +
		"**Description:** A critical flaw is exploited.\n\n" +
		"**Link:** [https://example.com/critical](https://example.com/critical)\n\n" +
		"**Source:** Test Feed | **Published:** 2025-06-01 05:00 UTC\n\n" +
		"---\n\n"
	testutil.AssertEqual(t, got, want)
}

func TestInsertSummary(t *testing.T) {
	t.Parallel()

	digest := "# Cyber Security News - 2025-06-01\n\n*1 articles found*\n"

	got := insertSummary(digest, "Everything is on fire.\n")
	want := "# Cyber Security News - 2025-06-01\n\n" +
		"## Executive Summary\n\nEverything is on fire.\n\n" +
		"*1 articles found*\n"
	testutil.AssertEqual(t, got, want)

	// An empty summary leaves the digest alone.
	testutil.AssertEqual(t, insertSummary(digest, "  \n"), digest)
}

func TestUpdateReadme(t *testing.T) {
	t.Parallel()

	const (
		date     = "2025-06-01"
		filename = "2025-06-01.md"
		link     = "- [2025-06-01](newsitems/2025-06-01.md)"
	)

	cases := map[string]struct {
		content     string
		want        string
		wantChanged bool
	}{
		"creates readme from scratch": {
			content: "",
			want: "# DailyNews\n\nA simple page to show the daily news\n" +
				"\n## Latest News\n\n" + link + "\n",
			wantChanged: true,
		},
		"appends section when missing": {
			content: "# DailyNews\n\nSome intro.\n",
			want: "# DailyNews\n\nSome intro.\n" +
				"\n## Latest News\n\n" + link + "\n",
			wantChanged: true,
		},
		"inserts at top of existing section": {
			content: "# DailyNews\n\n## Latest News\n\n- [2025-05-31](newsitems/2025-05-31.md)\n",
			want: "# DailyNews\n\n## Latest News\n" + link + "\n\n" +
				"- [2025-05-31](newsitems/2025-05-31.md)\n",
			wantChanged: true,
		},
		"adds blank line before a packed list": {
			content: "# DailyNews\n\n## Latest News\n- [2025-05-31](newsitems/2025-05-31.md)\n",
			want: "# DailyNews\n\n## Latest News\n\n" + link + "\n" +
				"- [2025-05-31](newsitems/2025-05-31.md)\n",
			wantChanged: true,
		},
		"second run of the day is a no-op": {
			content:     "# DailyNews\n\n## Latest News\n\n" + link + "\n",
			want:        "# DailyNews\n\n## Latest News\n\n" + link + "\n",
			wantChanged: false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, changed := updateReadme(tc.content, date, filename)
			testutil.AssertEqual(t, got, tc.want)
			testutil.AssertEqual(t, changed, tc.wantChanged)

			// Updating again never duplicates the link.
			again, changedAgain := updateReadme(got, date, filename)
			testutil.AssertEqual(t, again, got)
			testutil.AssertEqual(t, changedAgain, false)
		})
	}

	t.Run("link count stays one", func(t *testing.T) {
		content := ""
		for range 3 {
			content, _ = updateReadme(content, date, filename)
		}
		testutil.AssertEqual(t, strings.Count(content, link), 1)
	})
}
