// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Newsfetch collects cyber security news and publishes a daily digest.

It fetches RSS feeds from several security news sources, keeps the articles
published within the current timeframe (the last 24 hours, or 72 hours on
Mondays to cover the weekend), and renders them into a dated markdown file
under the newsitems directory. A link to the new file is inserted at the top
of the "Latest News" section of README.md. The changes are then committed and
pushed to the configured git remotes.

Newsfetch is normally run from cron by a deployment created with newsdeploy.

# Usage

	$ newsfetch [flags...]

# Environment Variables

  - GEMINI_API_KEY: when set, the digest is prefaced with an executive summary
    generated by the Gemini API.
  - TELEGRAM_TOKEN, CHAT_ID: when both are set, run failures are reported to
    this Telegram chat.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/dailynews/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
