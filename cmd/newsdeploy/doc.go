// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Newsdeploy provisions a host to run the DailyNews bot.

It brings the host in line with a declared desired state: OS packages are
installed, a service account exists, the deploy directory holds a clean
checkout of the news repository, git remotes carry credentials from the .env
file, and the bot is scheduled in the service account's crontab. Every step is
idempotent, so newsdeploy can be re-run any number of times; it converges
instead of duplicating configuration.

# Usage

	$ newsdeploy [flags...] [deploy path]

The deploy path defaults to /opt/dailynews. Newsdeploy must run as root.

# Environment Variables

  - DEPLOY_USER: overrides the service account name declared in the
    configuration.

# Configuration

The desired state is declared in a Starlark file (see -config). A built-in
configuration matching the DailyNews repository is used when none is given.
For example:

	account = "newsbot"

	packages = [
	    package(name = "git"),
	    package(name = "cron", probe = "crontab"),
	]

	repo = "https://git.sweet6.net/Sweet6/DailyNews"

	remotes = [
	    remote(
	        name = "origin",
	        default_url = "https://git.sweet6.net/Sweet6/DailyNews",
	        url_key = "GITEA_URL",
	        user_key = "GITEA_USERNAME",
	        secret_key = "GITEA_PASSWORD",
	        ssh_key = "GITEA_USE_SSH",
	    ),
	]

	jobs = [
	    job(
	        schedule = "30 6 * * *",
	        command = "cd {path} && ./newsfetch",
	        log = "{path}/news.log",
	        tag = "# dailynews",
	    ),
	]

	markers = ["# dailynews", "newsfetch"]

The {path} placeholder in job commands and log targets is replaced with the
deploy path. The markers list identifies crontab entries owned by newsdeploy:
matching entries are replaced on every run, all other entries are preserved
untouched.

The url_key, user_key, secret_key and ssh_key attributes of a remote name keys
in the deploy path's .env file. A remote is only configured when both its user
and secret keys have values; otherwise it is skipped with a warning. When the
ssh key is true the remote is assumed to authenticate via the account's SSH
key and is left untouched, unless the url key explicitly overrides its URL.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/dailynews/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
