// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package version

import (
	"runtime"
	"strings"
	"testing"

	"go.astrophena.name/dailynews/internal/testutil"
)

func TestVersion(t *testing.T) {
	i := Version()
	testutil.AssertEqual(t, i.Go, runtime.Version())
	testutil.AssertEqual(t, i.OS, runtime.GOOS)
	testutil.AssertEqual(t, i.Arch, runtime.GOARCH)

	if CmdName() == "" {
		t.Fatal("CmdName must not be empty")
	}
	if !strings.Contains(i.String(), CmdName()) {
		t.Errorf("String must contain the command name: %q", i.String())
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, CmdName()+"/") {
		t.Errorf("unexpected user agent %q", ua)
	}
}
