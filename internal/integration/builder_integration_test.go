package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/release"
	"github.com/oshokin/excel-form-extractor/internal/service/builder"
	"github.com/oshokin/excel-form-extractor/internal/toolchain"
)

// fakeToolchain holds shell scripts standing in for go, gopy and python.
type fakeToolchain struct {
	dir    string
	log    string
	gopath string
}

func (f *fakeToolchain) binary(name string) string {
	return filepath.Join(f.dir, name)
}

// invocations returns the logged command lines.
func (f *fakeToolchain) invocations(t *testing.T) []string {
	t.Helper()

	contents, err := os.ReadFile(f.log)
	require.NoError(t, err)

	return strings.Split(strings.TrimSpace(string(contents)), "\n")
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()

	//nolint:gosec // Test executables must be executable.
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func newFakeToolchain(t *testing.T) *fakeToolchain {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake toolchain scripts need a POSIX shell")
	}

	dir := t.TempDir()
	f := &fakeToolchain{
		dir:    dir,
		log:    filepath.Join(dir, "invocations.log"),
		gopath: filepath.Join(dir, "gopath"),
	}

	writeScript(t, f.binary("go"), `echo "go $*" >> '`+f.log+`'
case "$1 $2" in
"env GOPATH") echo '`+f.gopath+`' ;;
"env -json") echo '{"GOOS":"linux","CGO_ENABLED":"1"}' ;;
*) echo "unsupported" >&2; exit 2 ;;
esac
`)

	writeScript(t, f.binary("gopy"), `echo "gopy $* CGO_LDFLAGS_ALLOW=$CGO_LDFLAGS_ALLOW CGO_ENABLED=$CGO_ENABLED PATH=$PATH" >> '`+f.log+`'
out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-output" ]; then out="$2"; fi
	shift
done
mkdir -p "$out"
echo "binary" > "$out/_py_excel_form_extractor.so"
echo "from . import _py_excel_form_extractor" > "$out/py_excel_form_extractor.py"
echo "# generated" > "$out/__init__.py"
`)

	writeScript(t, f.binary("python3"), `echo "python3 $*" >> '`+f.log+`'
`)

	return f
}

// newProject creates a project tree and a configuration pointing at the fake toolchain.
func newProject(t *testing.T, tools *fakeToolchain) (workDir, configPath string) {
	t.Helper()

	workDir = t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "README.md"), []byte("# Excel form extractor\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "LICENSE"), []byte("MIT License\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "pkg", "extractor"), 0o750))

	cfg := config.Default()
	cfg.Build.GoBinary = tools.binary("go")
	cfg.Build.GopyBinary = tools.binary("gopy")
	cfg.Build.PythonBinary = tools.binary("python3")

	configPath = filepath.Join(workDir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configPath, cfg))

	return workDir, configPath
}

func lookup(env map[string]string) release.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

// TestBuilder_CIBuildWithFakeToolchain runs the whole CI build through real processes.
func TestBuilder_CIBuildWithFakeToolchain(t *testing.T) {
	t.Parallel()

	tools := newFakeToolchain(t)
	workDir, configPath := newProject(t, tools)

	result, err := builder.Run(context.Background(), &builder.Options{
		ConfigPath: configPath,
		WorkDir:    workDir,
		GOOS:       "linux",
		Lookup: lookup(map[string]string{
			release.ReleaseVersionVariable: "v2.3.4",
			release.PathVariable:           os.Getenv(release.PathVariable),
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "2.3.4", result.Version)

	// The init file is replaced with the star import.
	contents, err := os.ReadFile(filepath.Join(workDir, config.DefaultPackageName, builder.InitFilename))
	require.NoError(t, err)
	require.Equal(t, string(builder.InitFileContents(config.DefaultPackageName)), string(contents))

	calls := tools.invocations(t)
	require.Len(t, calls, 4)
	require.Equal(t, "python3 -m pip install pybindgen", calls[0])
	require.Equal(t, "go env GOPATH", calls[1])
	require.Equal(t, "go env -json", calls[2])

	gopy := calls[3]
	require.Contains(t, gopy, "gopy build -no-make -dynamic-link=True -rename=True -output "+config.DefaultPackageName)
	require.Contains(t, gopy, "-vm "+tools.binary("python3"))
	require.Contains(t, gopy, " ./pkg/extractor")
	require.Contains(t, gopy, "CGO_LDFLAGS_ALLOW=.*")
	require.Contains(t, gopy, "CGO_ENABLED=1")
	require.Contains(t, gopy, filepath.Join(tools.gopath, "bin"))

	manifest, err := builder.LoadManifest(result.ManifestPath)
	require.NoError(t, err)
	require.Equal(t, "2.3.4", manifest.Package.Version)
	require.Contains(t, manifest.Files, "__init__.py")
	require.Contains(t, manifest.Files, "_py_excel_form_extractor.so")
	require.Contains(t, manifest.Files, "py_excel_form_extractor.py")

	require.NoFileExists(t, filepath.Join(workDir, builder.MarkerFilename))
}

// TestBuilder_MissingVersionRunsNothing checks that no process starts without a version.
func TestBuilder_MissingVersionRunsNothing(t *testing.T) {
	t.Parallel()

	tools := newFakeToolchain(t)
	workDir, configPath := newProject(t, tools)

	_, err := builder.Run(context.Background(), &builder.Options{
		ConfigPath: configPath,
		WorkDir:    workDir,
		Lookup:     lookup(nil),
	})

	var missing *release.MissingVersionError
	require.ErrorAs(t, err, &missing)
	require.NoFileExists(t, tools.log)
}

// TestBuilder_UnreachableGo fails the build when the go binary cannot be started.
func TestBuilder_UnreachableGo(t *testing.T) {
	t.Parallel()

	tools := newFakeToolchain(t)
	workDir, configPath := newProject(t, tools)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	cfg.Build.GoBinary = filepath.Join(tools.dir, "no-such-go")
	require.NoError(t, config.Save(configPath, cfg))

	_, err = builder.Run(context.Background(), &builder.Options{
		ConfigPath: configPath,
		WorkDir:    workDir,
		GOOS:       "linux",
		Lookup: lookup(map[string]string{
			release.ReleaseVersionVariable: "1.0.0",
			release.PathVariable:           os.Getenv(release.PathVariable),
		}),
	})

	var stepErr *builder.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, builder.StepGOPATH, stepErr.Step)

	var cmdErr *toolchain.CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, -1, cmdErr.ExitCode)

	require.NoFileExists(t, filepath.Join(workDir, config.DefaultPackageName, builder.InitFilename))
}

// TestBuilder_GopyFailure reports the gopy exit code and stderr.
func TestBuilder_GopyFailure(t *testing.T) {
	t.Parallel()

	tools := newFakeToolchain(t)
	writeScript(t, tools.binary("gopy"), "echo 'cannot find package' >&2\nexit 1\n")

	workDir, configPath := newProject(t, tools)

	_, err := builder.Run(context.Background(), &builder.Options{
		ConfigPath: configPath,
		WorkDir:    workDir,
		GOOS:       "linux",
		Lookup: lookup(map[string]string{
			release.ReleaseVersionVariable: "1.0.0",
			release.PathVariable:           os.Getenv(release.PathVariable),
		}),
	})

	var stepErr *builder.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, builder.StepGopy, stepErr.Step)

	var cmdErr *toolchain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 1, cmdErr.ExitCode)
	require.Contains(t, cmdErr.Stderr, "cannot find package")
}
