package toolchain

import (
	"os"
	"path/filepath"
	"strings"
)

// CGOLinkerFlagsAllow disables cgo linker flag sanitisation; gopy passes
// Python's own linker flags which cgo would otherwise reject.
const CGOLinkerFlagsAllow = "CGO_LDFLAGS_ALLOW"

// GopyBuildArgs returns the arguments of a dynamic-link, renaming gopy build.
func GopyBuildArgs(output, python string, sources []string) []string {
	args := []string{
		"build",
		"-no-make",
		"-dynamic-link=True",
		"-rename=True",
		"-output",
		output,
		"-vm",
		python,
	}

	return append(args, sources...)
}

// ExpandSources resolves source globs relative to dir into package directories.
// Globs matching no directory are kept verbatim so the tool reports them.
func ExpandSources(dir string, patterns []string) ([]string, error) {
	sources := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			sources = append(sources, pattern)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}

		expanded := 0

		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || !info.IsDir() {
				continue
			}

			rel, err := filepath.Rel(dir, match)
			if err != nil {
				return nil, err
			}

			sources = append(sources, "./"+filepath.ToSlash(rel))
			expanded++
		}

		if expanded == 0 {
			sources = append(sources, pattern)
		}
	}

	return sources, nil
}
