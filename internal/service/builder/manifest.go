package builder

import (
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/excel-form-extractor/internal/release"
	"github.com/oshokin/excel-form-extractor/internal/version"
)

// manifestFileMode is the permission of the written manifest.
const manifestFileMode os.FileMode = 0o644

// Manifest describes a built release of the Python package.
type Manifest struct {
	// Producer identifies the packager that wrote the manifest.
	Producer string `yaml:"producer"`
	// Variant is the build variant.
	Variant string `yaml:"variant"`
	// Package is the package descriptor.
	Package *release.Descriptor `yaml:"package"`
	// Files maps package-relative file names to base64-encoded SHA-512 checksums.
	Files map[string]string `yaml:"files"`
}

// ManifestFilename returns the manifest file name for a package.
func ManifestFilename(packageName string) string {
	return packageName + "-release.yaml"
}

// LoadManifest reads a manifest written by a previous build.
func LoadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// newManifest hashes every file under packageDir matching the descriptor's package data globs.
// A missing package dir yields an empty file list.
func newManifest(desc *release.Descriptor, variant, packageDir string) (*Manifest, error) {
	m := &Manifest{
		Producer: version.Producer(),
		Variant:  variant,
		Package:  desc,
		Files:    make(map[string]string),
	}

	var matches []string

	for _, pattern := range desc.PackageData {
		found, err := filepath.Glob(filepath.Join(packageDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("package data %q: %w", pattern, err)
		}

		matches = append(matches, found...)
	}

	matches = lo.Uniq(matches)
	slices.Sort(matches)

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return nil, err
		}

		if info.IsDir() {
			continue
		}

		checksum, err := fileChecksum(path)
		if err != nil {
			return nil, err
		}

		rel, err := filepath.Rel(packageDir, path)
		if err != nil {
			return nil, err
		}

		m.Files[filepath.ToSlash(rel)] = base64.StdEncoding.EncodeToString(checksum)
	}

	return m, nil
}

func (m *Manifest) save(path string) error {
	contents, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	return os.WriteFile(path, contents, manifestFileMode)
}

// fileChecksum returns the SHA-512 digest of a file.
func fileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	sum := sha512.Sum512(contents)

	return sum[:], nil
}
