// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package envflag

import (
	"flag"
	"testing"

	"go.astrophena.name/dailynews/internal/testutil"
)

func getenv(env map[string]string) func(string) string {
	return func(name string) string { return env[name] }
}

func TestValueDefault(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	got := Value("user", "DEPLOY_USER", "newsbot", "Service account name.", fs, getenv(nil))
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, *got, "newsbot")
}

func TestValueEnvOverride(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	got := Value("user", "DEPLOY_USER", "newsbot", "Service account name.", fs, getenv(map[string]string{
		"DEPLOY_USER": "otherbot",
	}))
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, *got, "otherbot")
}

func TestValueFlagWinsOverEnv(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	got := Value("user", "DEPLOY_USER", "newsbot", "Service account name.", fs, getenv(map[string]string{
		"DEPLOY_USER": "otherbot",
	}))
	if err := fs.Parse([]string{"-user", "flagbot"}); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, *got, "flagbot")
}

func TestValueTypes(t *testing.T) {
	t.Parallel()

	env := getenv(map[string]string{
		"NUM":   "42",
		"RATIO": "0.5",
		"ON":    "true",
		"BAD":   "not-a-number",
	})

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	num := Value("num", "NUM", 0, "", fs, env)
	ratio := Value("ratio", "RATIO", 0.0, "", fs, env)
	on := Value("on", "ON", false, "", fs, env)
	bad := Value("bad", "BAD", 7, "", fs, env)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, *num, 42)
	testutil.AssertEqual(t, *ratio, 0.5)
	testutil.AssertEqual(t, *on, true)
	// Unparsable environment values keep the default.
	testutil.AssertEqual(t, *bad, 7)
}
