package codec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/udisondev/la2dat/internal/dat"
)

// ErrToolFailed is returned when an external encoder/decoder exits with an error.
var ErrToolFailed = errors.New("codec tool failed")

// ExecConfig locates the external dat tools.
type ExecConfig struct {
	EncDec        string `yaml:"encdec"`         // l2encdec executable
	Asm           string `yaml:"asm"`            // l2asm executable
	Disasm        string `yaml:"disasm"`         // l2disasm executable
	DescriptorDir string `yaml:"descriptor_dir"` // directory of *.ddf files for decoding
	Header        int    `yaml:"header"`         // protocol header written on encode
}

// DefaultExecConfig returns tool paths relative to the working directory.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		EncDec:        "tools/l2encdec/l2encdec.exe",
		Asm:           "tools/l2asm-disasm/l2asm",
		Disasm:        "tools/l2asm-disasm/l2disasm",
		DescriptorDir: "tools/l2asm-disasm/DAT_defs/Interlude",
		Header:        413,
	}
}

// Exec decodes and encodes dat files through l2encdec and l2asm/l2disasm.
// Intermediate files live in a private temporary directory that is removed on
// every return path.
type Exec struct {
	cfg ExecConfig
}

// NewExec creates an Exec codec.
func NewExec(cfg ExecConfig) *Exec {
	return &Exec{cfg: cfg}
}

// Decode decrypts and disassembles dir/file.
func (c *Exec) Decode(ctx context.Context, dir, file string) ([]string, error) {
	if err := checkDatName(file); err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "la2dat-decode-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer removeTemp(tmp)

	decrypted := filepath.Join(tmp, "dec-"+file)
	text := filepath.Join(tmp, strings.TrimSuffix(file, ".dat")+".txt")
	descriptor := filepath.Join(c.cfg.DescriptorDir, dat.DescriptorName(file, ""))

	if err := c.run(ctx, c.cfg.EncDec, "-s", filepath.Join(dir, file), decrypted); err != nil {
		return nil, err
	}
	if err := c.run(ctx, c.cfg.Disasm, "-d", descriptor, decrypted, text); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(text)
	if err != nil {
		return nil, fmt.Errorf("reading disassembled %s: %w", file, err)
	}
	return splitLines(raw), nil
}

// Encode assembles lines with descriptor and encrypts the result into dir/file.
func (c *Exec) Encode(ctx context.Context, dir, file string, lines []string, descriptor string) error {
	if err := checkDatName(file); err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "la2dat-encode-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer removeTemp(tmp)

	text := filepath.Join(tmp, strings.TrimSuffix(file, ".dat")+".txt")
	assembled := filepath.Join(tmp, "unenc-"+file)
	encrypted := filepath.Join(tmp, file)

	if err := os.WriteFile(text, joinLines(lines), 0o644); err != nil {
		return fmt.Errorf("writing %s text: %w", file, err)
	}
	if err := c.run(ctx, c.cfg.Asm, "-d", descriptor, text, assembled); err != nil {
		return err
	}
	if err := c.run(ctx, c.cfg.EncDec, "-h", strconv.Itoa(c.cfg.Header), assembled, encrypted); err != nil {
		return err
	}

	data, err := os.ReadFile(encrypted)
	if err != nil {
		return fmt.Errorf("reading encoded %s: %w", file, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, file), data); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

func (c *Exec) run(ctx context.Context, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v: %s", ErrToolFailed,
			filepath.Base(tool), strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	slog.Debug("codec tool finished", "tool", filepath.Base(tool), "args", args)
	return nil
}

func checkDatName(file string) error {
	if !strings.HasSuffix(file, ".dat") {
		return fmt.Errorf("codec: %q is not a .dat file", file)
	}
	return nil
}

func removeTemp(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("removing codec temp dir", "dir", dir, "err", err)
	}
}
