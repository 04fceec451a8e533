package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/release"
	"github.com/oshokin/excel-form-extractor/internal/toolchain"
)

// Build step names reported in Result and StepError.
const (
	StepEnvironment = "environment"
	StepLock        = "lock"
	StepDescriptor  = "descriptor"
	StepBindgen     = "bindgen"
	StepGOPATH      = "gopath"
	StepGoEnv       = "goenv"
	StepGopy        = "gopy"
	StepInitFile    = "init-file"
	StepManifest    = "manifest"
)

var errOptionsNotSet = errors.New("build options are not set")

// Options are inputs accepted by the build entry point.
type Options struct {
	// ConfigPath is the optional path to the YAML configuration; a missing file means defaults.
	ConfigPath string
	// Variant overrides build.variant from the configuration when set.
	Variant string
	// WorkDir is the project root holding README, LICENSE and the package sources.
	WorkDir string
	// Runner executes external commands; defaults to an ExecRunner streaming to stdout and stderr.
	Runner toolchain.Runner
	// Lookup reads environment variables; defaults to os.LookupEnv.
	Lookup release.LookupFunc
	// GOOS overrides the host operating system.
	GOOS string
	// LogLevel overrides the configured log level.
	LogLevel string
}

// StepResult describes one completed build step.
type StepResult struct {
	// Name is the step name.
	Name string
	// Duration is the wall time the step took.
	Duration time.Duration
	// Skipped is true when the step did not apply to this environment.
	Skipped bool
}

// Result is the outcome of a successful build.
type Result struct {
	// Version is the resolved release version.
	Version string
	// Package is the Python import package name.
	Package string
	// Steps lists every step in execution order.
	Steps []StepResult
	// InitFile is the rewritten package __init__.py; empty for the local variant.
	InitFile string
	// ManifestPath is the written release manifest.
	ManifestPath string
}

// StepError reports the step a build failed at.
type StepError struct {
	// Step is the failed step name.
	Step string
	// Err is the underlying error, a *toolchain.CommandError for external commands.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("build step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// build holds the state of a single build execution.
type build struct {
	cfg        *config.Config
	env        *release.Environment
	workDir    string
	runner     toolchain.Runner
	descriptor *release.Descriptor
	result     *Result
}

// Run executes the build and is the public entry point for the CLI.
// Failures are logged and returned as *StepError.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "builder")

	result, err := run(ctx, opts)
	if err != nil {
		logger.ErrorKV(ctx, "Build failed", "error", err)
		return nil, err
	}

	logger.InfoKV(ctx, "Build completed",
		"version", result.Version,
		"package", result.Package,
		"manifest", result.ManifestPath)

	return result, nil
}

func run(ctx context.Context, opts *Options) (*Result, error) {
	if opts == nil {
		return nil, &StepError{Step: StepEnvironment, Err: errOptionsNotSet}
	}

	b, err := newBuild(ctx, opts)
	if err != nil {
		return nil, &StepError{Step: StepEnvironment, Err: err}
	}

	started := time.Now()

	lock, err := acquireMarker(ctx, b.workDir)
	if err != nil {
		return nil, &StepError{Step: StepLock, Err: err}
	}

	defer lock.release(ctx)

	b.record(StepLock, started, false)

	if err = b.steps(ctx); err != nil {
		return nil, err
	}

	return b.result, nil
}

// loadConfig reads the configuration, applies the log level and the variant override.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = logger.ApplyLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}

	if opts.Variant != "" {
		cfg.Build.Variant = opts.Variant
		if err = config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// newBuild loads configuration and the release environment before any command runs.
func newBuild(ctx context.Context, opts *Options) (*build, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	env, err := release.LoadEnvironment(cfg.Build, release.EnvironmentOptions{
		Lookup: opts.Lookup,
		GOOS:   opts.GOOS,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Resolved build environment",
		"variant", env.Variant,
		"version", env.Version,
		"version_variable", env.VersionVariable,
		"python", env.PythonBinary,
		"goos", env.GOOS)

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}

	runner := opts.Runner
	if runner == nil {
		runner = toolchain.NewExecRunner(
			toolchain.WithOutput(os.Stdout, os.Stderr),
			toolchain.WithTimeout(cfg.Build.CommandTimeout))
	}

	return &build{
		cfg:     cfg,
		env:     env,
		workDir: workDir,
		runner:  runner,
		result: &Result{
			Version: env.Version,
			Package: cfg.Package.Name,
			Steps:   []StepResult{{Name: StepEnvironment}},
		},
	}, nil
}

// steps runs everything after the marker is held.
func (b *build) steps(ctx context.Context) error {
	if err := b.step(ctx, StepDescriptor, false, b.buildDescriptor); err != nil {
		return err
	}

	if b.env.Variant == config.VariantCI {
		if err := b.extension(ctx); err != nil {
			return err
		}
	}

	return b.step(ctx, StepManifest, false, b.writeManifest)
}

// extension compiles the CPython extension and rewrites the package init file.
func (b *build) extension(ctx context.Context) error {
	if err := b.step(ctx, StepBindgen, !b.env.InstallBindgen, b.installBindgen); err != nil {
		return err
	}

	goTool := toolchain.NewGoToolchain(b.runner, b.cfg.Build.GoBinary, nil)

	var (
		gopath string
		goEnv  map[string]string
	)

	err := b.step(ctx, StepGOPATH, false, func(ctx context.Context) (err error) {
		gopath, err = goTool.GOPATH(ctx)
		return err
	})
	if err != nil {
		return err
	}

	err = b.step(ctx, StepGoEnv, false, func(ctx context.Context) (err error) {
		goEnv, err = goTool.Env(ctx)
		return err
	})
	if err != nil {
		return err
	}

	err = b.step(ctx, StepGopy, false, func(ctx context.Context) error {
		return b.gopy(ctx, gopath, goEnv)
	})
	if err != nil {
		return err
	}

	return b.step(ctx, StepInitFile, false, b.writeInitFile)
}

// step runs fn as a named step and records its result.
func (b *build) step(ctx context.Context, name string, skip bool, fn func(context.Context) error) error {
	started := time.Now()

	if skip {
		logger.InfoKV(ctx, "Skipping build step", "step", name)
		b.record(name, started, true)

		return nil
	}

	logger.InfoKV(ctx, "Running build step", "step", name)

	if err := ctx.Err(); err != nil {
		return &StepError{Step: name, Err: err}
	}

	if err := fn(ctx); err != nil {
		return &StepError{Step: name, Err: err}
	}

	b.record(name, started, false)

	return nil
}

func (b *build) record(name string, started time.Time, skipped bool) {
	b.result.Steps = append(b.result.Steps, StepResult{
		Name:     name,
		Duration: time.Since(started),
		Skipped:  skipped,
	})
}

func (b *build) buildDescriptor(context.Context) (err error) {
	b.descriptor, err = release.NewDescriptor(b.cfg.Package, b.env.Variant, b.env.Version, b.workDir)
	return err
}

func (b *build) installBindgen(ctx context.Context) error {
	return b.runner.Run(ctx, toolchain.Command{
		Name: b.env.PythonBinary,
		Args: []string{"-m", "pip", "install", "pybindgen"},
		Dir:  b.workDir,
	})
}

func (b *build) gopy(ctx context.Context, gopath string, goEnv map[string]string) error {
	sources, err := toolchain.ExpandSources(b.workDir, b.cfg.Build.Sources)
	if err != nil {
		return fmt.Errorf("expand sources: %w", err)
	}

	env := toolchain.ComposeEnv(
		map[string]string{release.PathVariable: toolchain.PathWithGoBin(b.env.Path, gopath)},
		goEnv,
		map[string]string{toolchain.CGOLinkerFlagsAllow: ".*"},
	)

	return b.runner.Run(ctx, toolchain.Command{
		Name: b.cfg.Build.GopyBinary,
		Args: toolchain.GopyBuildArgs(b.cfg.Build.OutputDir, b.env.PythonBinary, sources),
		Env:  env,
		Dir:  b.workDir,
	})
}

func (b *build) writeInitFile(ctx context.Context) error {
	path := filepath.Join(b.workDir, b.cfg.Build.OutputDir, InitFilename)
	if err := writeInitFile(path, b.cfg.Package.Name); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Rewrote package init file", "path", path)
	b.result.InitFile = path

	return nil
}

func (b *build) writeManifest(ctx context.Context) error {
	manifest, err := newManifest(b.descriptor, b.env.Variant, filepath.Join(b.workDir, b.cfg.Build.OutputDir))
	if err != nil {
		return err
	}

	path := filepath.Join(b.workDir, ManifestFilename(b.cfg.Package.Name))
	if err = manifest.save(path); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saved release manifest", "path", path, "files", len(manifest.Files))
	b.result.ManifestPath = path

	return nil
}
