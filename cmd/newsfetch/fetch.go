// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"html"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.astrophena.name/dailynews/internal/util/syncx"

	"github.com/mmcdole/gofeed"
)

var defaultFeeds = map[string]string{
	"Bleeping Computer": "https://www.bleepingcomputer.com/feed/",
	"Security Week":     "https://www.securityweek.com/feed/",
	"The Hacker News":   "https://feeds.feedburner.com/TheHackersNews",
	"The Register":      "https://www.theregister.com/security/headlines.atom",
}

const fetchConcurrencyLimit = 4

// article is a single news item collected from a feed.
type article struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
	Source    string
}

// fetchArticles collects articles published after cutoff from all feeds.
// A failing feed is logged and skipped; the remaining sources still produce a
// digest. Articles are sorted newest first.
func (f *fetcher) fetchArticles(ctx context.Context, cutoff time.Time) []article {
	collected := syncx.Protect(&[]article{})

	wg := syncx.NewLimitedWaitGroup(fetchConcurrencyLimit)
	for source, url := range f.feeds {
		wg.Go(func() {
			feed, err := f.fp.ParseURLWithContext(url, ctx)
			if err != nil {
				f.logf("Fetching from %s: %v", source, err)
				return
			}
			var got []article
			for _, item := range feed.Items {
				published := itemTime(item)
				if published.IsZero() || published.Before(cutoff) {
					continue
				}
				got = append(got, article{
					Title:     item.Title,
					Summary:   item.Description,
					Link:      item.Link,
					Published: published,
					Source:    source,
				})
			}
			collected.Access(func(all *[]article) { *all = append(*all, got...) })
		})
	}
	wg.Wait()

	var articles []article
	collected.RAccess(func(all *[]article) { articles = *all })
	slices.SortFunc(articles, func(a, b article) int {
		return b.Published.Compare(a.Published)
	})
	return articles
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// cleanSummary strips HTML tags and entities from a feed summary and
// truncates it to at most 500 runes.
func cleanSummary(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > 500 {
		s = string(runes[:500]) + "..."
	}
	return s
}
