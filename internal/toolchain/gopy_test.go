package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGopyBuildArgs keeps the flag order the release pipeline relies on.
func TestGopyBuildArgs(t *testing.T) {
	t.Parallel()

	args := GopyBuildArgs("py_excel_form_extractor", "/usr/bin/python3", []string{"./pkg/extractor"})
	require.Equal(t, []string{
		"build", "-no-make", "-dynamic-link=True", "-rename=True",
		"-output", "py_excel_form_extractor",
		"-vm", "/usr/bin/python3",
		"./pkg/extractor",
	}, args)
}

// TestExpandSources expands globs to package directories and keeps unmatched patterns.
func TestExpandSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg", "extractor"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg", "utils"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "README.md"), nil, 0o600))

	sources, err := ExpandSources(dir, []string{"./pkg/*", "./internal/*", "github.com/acme/forms"})
	require.NoError(t, err)
	require.Equal(t, []string{"./pkg/extractor", "./pkg/utils", "./internal/*", "github.com/acme/forms"}, sources)
}
