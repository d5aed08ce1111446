// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"fmt"
	"strings"
)

// renderDigest produces the markdown for one daily news file.
func renderDigest(articles []article, date string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Cyber Security News - %s\n\n", date)

	if len(articles) == 0 {
		sb.WriteString("*No new articles found in the last 24 hours.*\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "*%d articles found*\n\n---\n\n", len(articles))

	for _, a := range articles {
		fmt.Fprintf(&sb, "## **%s**\n\n", a.Title)
		fmt.Fprintf(&sb, "**Description:** %s\n\n", cleanSummary(a.Summary))
		fmt.Fprintf(&sb, "**Link:** [%s](%s)\n\n", a.Link, a.Link)
		fmt.Fprintf(&sb, "**Source:** %s | **Published:** %s\n\n", a.Source, a.Published.UTC().Format("2006-01-02 15:04 UTC"))
		sb.WriteString("---\n\n")
	}

	return sb.String()
}

// insertSummary places the generated executive summary right after the digest
// title, before the article list.
func insertSummary(digest, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return digest
	}
	block := "## Executive Summary\n\n" + summary + "\n\n"

	title, rest, found := strings.Cut(digest, "\n\n")
	if !found {
		return digest + "\n\n" + block
	}
	return title + "\n\n" + block + rest
}

// updateReadme inserts a link to the new digest at the top of the
// "Latest News" section, creating the section (and the README itself) when
// missing. It reports whether the content changed: the second run of a day
// finds its link already present and leaves the README alone.
func updateReadme(content, date, filename string) (updated string, changed bool) {
	const section = "## Latest News"

	if content == "" {
		content = "# DailyNews\n\nA simple page to show the daily news\n"
	}

	link := fmt.Sprintf("- [%s](newsitems/%s)", date, filename)
	if strings.Contains(content, link) {
		return content, false
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != section {
			continue
		}
		// Keep a blank line between the heading and the list.
		insert := []string{link}
		if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			insert = []string{"", link}
		}
		lines = append(lines[:i+1], append(insert, lines[i+1:]...)...)
		return strings.Join(lines, "\n"), true
	}

	// No section yet: append one at the end.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n\n" + link + "\n", true
}
