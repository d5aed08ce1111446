// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package envfile reads credentials from line-oriented KEY=VALUE files.
//
// The format is deliberately simple: one KEY=VALUE pair per line, lines
// starting with # are comments, blank lines are skipped, and values may be
// wrapped in single or double quotes, which are stripped. Values may be
// empty; an empty value means the credential is absent, not malformed.
package envfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Env is a set of credentials parsed from an environment file. Values are
// held in memory only and must never be logged.
type Env map[string]string

// Get returns the value for key, or the empty string if the key is absent.
func (e Env) Get(key string) string { return e[key] }

// GetDefault returns the value for key, or def if the key is absent or its
// value is empty.
func (e Env) GetDefault(key, def string) string {
	if v := e[key]; v != "" {
		return v
	}
	return def
}

// GetBool reports whether key is set to a truthy value ("true", "yes" or "1",
// case-insensitive).
func (e Env) GetBool(key string) bool {
	switch strings.ToLower(e[key]) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// Load reads and parses the environment file at path. If the file does not
// exist, the error satisfies errors.Is(err, fs.ErrNotExist).
func Load(path string) (Env, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses an environment file from r. Lines without a = separator are
// skipped. If a key occurs more than once, the last value wins.
func Parse(r io.Reader) (Env, error) {
	env := make(Env)

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		env[key] = unquote(strings.TrimSpace(val))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return env, nil
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
