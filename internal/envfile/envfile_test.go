// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package envfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.astrophena.name/dailynews/internal/testutil"
)

func TestParse(t *testing.T) {
	t.Parallel()

	const file = `# Gitea credentials.
GITEA_USERNAME=newsbot
GITEA_PASSWORD="s3cret=with=equals"

GITHUB_USERNAME='sweets9'
GITHUB_TOKEN=
GITEA_USE_SSH=false

this line has no separator
  PADDED_KEY  =  padded value
`

	env, err := Parse(strings.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, env, Env{
		"GITEA_USERNAME":  "newsbot",
		"GITEA_PASSWORD":  "s3cret=with=equals",
		"GITHUB_USERNAME": "sweets9",
		"GITHUB_TOKEN":    "",
		"GITEA_USE_SSH":   "false",
		"PADDED_KEY":      "padded value",
	})
}

func TestParseLastValueWins(t *testing.T) {
	t.Parallel()

	env, err := Parse(strings.NewReader("KEY=first\nKEY=second\n"))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, env.Get("KEY"), "second")
}

func TestGetters(t *testing.T) {
	t.Parallel()

	env := Env{
		"PRESENT": "value",
		"EMPTY":   "",
		"FLAG":    "Yes",
	}

	testutil.AssertEqual(t, env.Get("PRESENT"), "value")
	testutil.AssertEqual(t, env.Get("MISSING"), "")
	testutil.AssertEqual(t, env.GetDefault("EMPTY", "fallback"), "fallback")
	testutil.AssertEqual(t, env.GetDefault("PRESENT", "fallback"), "value")
	testutil.AssertEqual(t, env.GetBool("FLAG"), true)
	testutil.AssertEqual(t, env.GetBool("MISSING"), false)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("KEY=value\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	env, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, env.Get("KEY"), "value")

	_, err = Load(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want fs.ErrNotExist, got %v", err)
	}
}
