// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"strings"
	"testing"
)

// WriteLines writes lines to path as a decoded table, one record per line.
func WriteLines(tb testing.TB, path string, lines ...string) {
	tb.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		tb.Fatalf("writing %s: %v", path, err)
	}
}

// ReadLines reads a decoded table written by a codec.
func ReadLines(tb testing.TB, path string) []string {
	tb.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
}
