// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"testing"

	"go.astrophena.name/dailynews/internal/testutil"
)

type testApp struct {
	name string
	ran  bool
}

func (a *testApp) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.name, "name", "world", "Who to greet.")
}

func (a *testApp) Run(ctx context.Context) error {
	a.ran = true
	env := GetEnv(ctx)
	fmt.Fprintf(env.Stdout, "hello, %s\n", a.name)
	return nil
}

func testEnv(args ...string) (*Env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Env{
		Args:   args,
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRun(t *testing.T) {
	t.Parallel()

	app := new(testApp)
	env, stdout, _ := testEnv("-name", "gopher")

	if err := Run(WithEnv(context.Background(), env), app); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, app.ran, true)
	testutil.AssertEqual(t, stdout.String(), "hello, gopher\n")
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	app := new(testApp)
	env, _, stderr := testEnv("-version")

	err := Run(WithEnv(context.Background(), env), app)
	if !errors.Is(err, ErrExitVersion) {
		t.Fatalf("got error %v, want %v", err, ErrExitVersion)
	}
	testutil.AssertEqual(t, app.ran, false)
	if stderr.Len() == 0 {
		t.Fatal("version information wasn't printed to stderr")
	}
}

func TestRunFlagParseError(t *testing.T) {
	t.Parallel()

	app := new(testApp)
	env, _, _ := testEnv("-nonexistent")

	err := Run(WithEnv(context.Background(), env), app)
	if err == nil {
		t.Fatal("expected an error")
	}
	if isPrintableError(err) {
		t.Fatalf("flag parse error must be unprintable, got %v", err)
	}
}

func TestGetEnvFallback(t *testing.T) {
	t.Parallel()

	// A context without an attached environment falls back to the OS one.
	env := GetEnv(context.Background())
	if env.Getenv == nil || env.Stdout == nil {
		t.Fatal("GetEnv returned an incomplete environment")
	}
}

func TestAppFunc(t *testing.T) {
	t.Parallel()

	var ran bool
	app := AppFunc(func(ctx context.Context) error {
		ran = true
		return nil
	})
	env, _, _ := testEnv()
	if err := Run(WithEnv(context.Background(), env), app); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, ran, true)
}

func TestParseDocComment(t *testing.T) {
	t.Parallel()

	SetDocComment([]byte(`/*
Example does example things.
*/
package main
`))
	t.Cleanup(func() { docSrc = nil })

	testutil.AssertEqual(t, parseDocComment(), "Example does example things.\n")
}
