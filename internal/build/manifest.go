package build

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the manifest written next to the patched tables.
const ManifestFile = "manifest.yaml"

// ErrDigestMismatch is returned by Verify when a file differs from its manifest entry.
var ErrDigestMismatch = errors.New("digest mismatch")

// Manifest lists the files of a build with their BLAKE2b-256 digests. Two
// builds from the same inputs produce identical manifests.
type Manifest struct {
	Files []ManifestEntry `yaml:"files"`
}

// ManifestEntry describes one output file.
type ManifestEntry struct {
	Name    string `yaml:"name"`
	Size    int64  `yaml:"size"`
	BLAKE2b string `yaml:"blake2b"`
}

// NewManifest hashes the named files in dir.
func NewManifest(dir string, names []string) (Manifest, error) {
	m := Manifest{Files: make([]ManifestEntry, 0, len(names))}
	for _, name := range names {
		e, err := digestFile(dir, name)
		if err != nil {
			return Manifest{}, err
		}
		m.Files = append(m.Files, e)
	}
	return m, nil
}

// ReadManifest loads dir/manifest.yaml.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// Write stores the manifest as dir/manifest.yaml.
func (m Manifest) Write(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Verify re-hashes every listed file in dir.
func (m Manifest) Verify(dir string) error {
	for _, want := range m.Files {
		got, err := digestFile(dir, want.Name)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: %s", ErrDigestMismatch, want.Name)
		}
	}
	return nil
}

func digestFile(dir, name string) (ManifestEntry, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return ManifestEntry{}, err
	}
	n, err := io.Copy(h, f)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("hashing %s: %w", name, err)
	}
	return ManifestEntry{Name: name, Size: n, BLAKE2b: hex.EncodeToString(h.Sum(nil))}, nil
}
