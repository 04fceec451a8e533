package release

import (
	"os"
	"runtime"

	"github.com/oshokin/excel-form-extractor/internal/config"
)

const (
	// PythonBinaryVariable selects the interpreter on macOS.
	PythonBinaryVariable = "PYTHON_BINARY_PATH"
	// PathVariable is the executable search path.
	PathVariable = "PATH"
)

// Environment is the validated process environment for one build.
type Environment struct {
	// Variant is the build variant the environment was resolved for.
	Variant string
	// Version is the resolved release version without a leading "v".
	Version string
	// VersionVariable is the variable the version was read from.
	VersionVariable string
	// PythonBinary is the interpreter passed to pip and gopy -vm.
	PythonBinary string
	// InstallBindgen reports whether pybindgen must be installed with pip first.
	InstallBindgen bool
	// Path is the inherited PATH value.
	Path string
	// GOOS is the host operating system.
	GOOS string
}

// EnvironmentOptions tune LoadEnvironment; zero values use the real process.
type EnvironmentOptions struct {
	// Lookup reads environment variables; defaults to os.LookupEnv.
	Lookup LookupFunc
	// GOOS overrides runtime.GOOS.
	GOOS string
}

// LoadEnvironment resolves and validates the build environment up front.
// The interpreter rules follow the release pipeline: on macOS PYTHON_BINARY_PATH
// may point at a python.org or Homebrew interpreter that already has pybindgen;
// everywhere else the configured interpreter is used and pybindgen is installed.
func LoadEnvironment(build config.Build, opts EnvironmentOptions) (*Environment, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	variable := VersionVariable(build.Variant)

	version, err := ResolveVersion(lookup, variable)
	if err != nil {
		return nil, err
	}

	path, _ := lookup(PathVariable)

	env := &Environment{
		Variant:         build.Variant,
		Version:         version,
		VersionVariable: variable,
		PythonBinary:    build.PythonBinary,
		InstallBindgen:  !build.SkipBindgenInstall,
		Path:            path,
		GOOS:            goos,
	}

	if goos == "darwin" {
		if explicit, ok := lookup(PythonBinaryVariable); ok && explicit != "" && explicit != build.PythonBinary {
			env.PythonBinary = explicit
			env.InstallBindgen = false
		}
	}

	return env, nil
}
