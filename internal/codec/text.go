// Package codec converts dat tables between their on-disk form and decoded
// tab-delimited text lines.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Text stores tables as UTF-8 text, one record per line. It is used for data
// that was decoded ahead of time and in tests.
type Text struct{}

// Decode reads dir/file and returns its lines, header first.
func (Text) Decode(ctx context.Context, dir, file string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return splitLines(raw), nil
}

// Encode writes lines to dir/file. The descriptor is not needed for text output.
func (Text) Encode(ctx context.Context, dir, file string, lines []string, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, file), joinLines(lines)); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

func splitLines(raw []byte) []string {
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	if len(raw) == 0 {
		return nil
	}
	lines := strings.Split(string(raw), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func joinLines(lines []string) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// writeFileAtomic writes data next to path and renames it into place, so a
// failed write never leaves a truncated table behind.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
