package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the extractor binaries.
type Config struct {
	// Package describes the Python distribution produced by the packager.
	Package Package `yaml:"package"`
	// Build controls the extension build step.
	Build Build `yaml:"build"`
	// Extractor holds defaults for workbook extraction.
	Extractor Extractor `yaml:"extractor"`
	// Server holds listener settings for form-extractor-server.
	Server Server `yaml:"server"`
	// LogLevel is the minimum level written by the binaries.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Package is the static metadata handed to Python packaging.
type Package struct {
	// Name is the import package name; the distribution name is derived from it.
	Name string `yaml:"name"`
	// URL is the project home page.
	URL string `yaml:"url"`
	// Author is the package author.
	Author string `yaml:"author"`
	// AuthorEmail is the author contact address.
	AuthorEmail string `yaml:"author_email,omitempty"`
	// Description is the one-line summary.
	Description string `yaml:"description"`
	// License is the short license identifier.
	License string `yaml:"license"`
	// ReadmeFile is read as the long description by the CI variant.
	ReadmeFile string `yaml:"readme_file"`
	// LicenseFile is read as the full license text by the CI variant.
	LicenseFile string `yaml:"license_file"`
	// Platforms lists declared platforms.
	Platforms []string `yaml:"platforms"`
	// Keywords lists index keywords.
	Keywords []string `yaml:"keywords"`
	// Classifiers lists trove classifiers.
	Classifiers []string `yaml:"classifiers"`
	// PyModules lists pure Python modules shipped with the package.
	PyModules []string `yaml:"py_modules"`
	// PackageData lists file globs included from the package directory.
	PackageData []string `yaml:"package_data"`
}

// Build controls how the CPython extension is produced.
type Build struct {
	// Variant selects the build flavour: "ci" (gopy build) or "local" (metadata only).
	Variant string `yaml:"variant"`
	// GoBinary is the Go toolchain executable.
	GoBinary string `yaml:"go_binary"`
	// GopyBinary is the binding generator executable.
	GopyBinary string `yaml:"gopy_binary"`
	// PythonBinary is the interpreter used for pip and passed to gopy -vm.
	PythonBinary string `yaml:"python_binary"`
	// Sources are the Go package globs handed to gopy.
	Sources []string `yaml:"sources"`
	// OutputDir is the gopy output directory; defaults to the package name.
	OutputDir string `yaml:"output_dir,omitempty"`
	// SkipBindgenInstall disables the `pip install pybindgen` prerequisite.
	SkipBindgenInstall bool `yaml:"skip_bindgen_install,omitempty"`
	// CommandTimeout bounds every external command; zero means no limit.
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`
}

// Extractor holds workbook extraction defaults.
type Extractor struct {
	// CompanyNames expand the {companyName} placeholder in label search terms.
	CompanyNames []string `yaml:"company_names"`
	// CacheFile is the bbolt file used to memoise results; empty disables caching.
	CacheFile string `yaml:"cache_file,omitempty"`
}

// Server holds listener settings.
type Server struct {
	// GRPCAddress is the gRPC listen address.
	GRPCAddress string `yaml:"grpc_address"`
	// HTTPAddress is the HTTP listen address; empty disables the HTTP API.
	HTTPAddress string `yaml:"http_address,omitempty"`
	// Timeout bounds a single extraction request.
	Timeout time.Duration `yaml:"timeout"`
	// MaxWorkbookSize limits accepted workbook payloads in bytes.
	MaxWorkbookSize int64 `yaml:"max_workbook_size"`
	// AllowPathRequests lets gRPC clients name a workbook on the server file system.
	AllowPathRequests bool `yaml:"allow_path_requests,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for the YAML configuration.
	DefaultConfigFilename = "form-extractor.yaml"

	// DefaultPackageName is the Python import package produced by the build.
	DefaultPackageName = "py_excel_form_extractor"

	// VariantCI builds the extension with gopy; the version comes from RELEASE_VERSION.
	VariantCI = "ci"
	// VariantLocal only assembles metadata; the version comes from PACKAGE_VERSION.
	VariantLocal = "local"

	// DefaultGRPCAddress is the default gRPC listen address.
	DefaultGRPCAddress = ":50051"

	// DefaultTimeout is the default duration for a single extraction request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxWorkbookSize caps workbook payloads at 32 MiB.
	DefaultMaxWorkbookSize int64 = 32 << 20

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPackageNameRequired is returned when the package name is missing.
	errPackageNameRequired = errors.New("package name must be provided")
	// errInvalidPackageName is returned when the package name is not a Python identifier.
	errInvalidPackageName = errors.New("package name must be a valid Python identifier")
	// errUnknownVariant is returned for build variants other than ci and local.
	errUnknownVariant = errors.New("unknown build variant")
	// errNegativeTimeout is returned for negative durations.
	errNegativeTimeout = errors.New("timeout must not be negative")
)

// Default returns the configuration matching the published package.
func Default() *Config {
	return &Config{
		Package: Package{
			Name:        DefaultPackageName,
			URL:         "https://github.com/adhadse/excelFormExtractor",
			Author:      "Anurag Dhadse",
			AuthorEmail: "hello@adhadse.com",
			Description: "Extract excel form content into structured data.",
			License:     "MIT",
			ReadmeFile:  "README.md",
			LicenseFile: "LICENSE",
			Platforms:   []string{"Linux"},
			Keywords:    []string{"go", "golang", "python", "excel", "xlsx", "form", "extractor"},
			Classifiers: []string{
				"Programming Language :: Python :: 3",
				"License :: OSI Approved :: MIT License",
			},
			PyModules: []string{
				DefaultPackageName + ".extractor",
				DefaultPackageName + ".utils",
			},
			PackageData: []string{"*.so", "*_go.py", "*.py", "_*.py", "*.h", "*.c"},
		},
		Build: Build{
			Variant:      VariantCI,
			GoBinary:     "go",
			GopyBinary:   "gopy",
			PythonBinary: "python3",
			Sources:      []string{"./pkg/*"},
			OutputDir:    DefaultPackageName,
		},
		Server: Server{
			GRPCAddress:     DefaultGRPCAddress,
			Timeout:         DefaultTimeout,
			MaxWorkbookSize: DefaultMaxWorkbookSize,
		},
	}
}

// Load reads configuration from the provided path on top of Default and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the validated Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err = Validate(cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	return cfg, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := validatePackage(&cfg.Package); err != nil {
		return err
	}

	if err := validateBuild(&cfg.Build, cfg.Package.Name); err != nil {
		return err
	}

	return validateServer(&cfg.Server)
}

func validatePackage(pkg *Package) error {
	pkg.Name = strings.TrimSpace(pkg.Name)
	if pkg.Name == "" {
		return errPackageNameRequired
	}

	if !isPythonIdentifier(pkg.Name) {
		return fmt.Errorf("%q: %w", pkg.Name, errInvalidPackageName)
	}

	return nil
}

func validateBuild(build *Build, packageName string) error {
	if build.Variant == "" {
		build.Variant = VariantCI
	}

	if !slices.Contains([]string{VariantCI, VariantLocal}, build.Variant) {
		return fmt.Errorf("%q: %w", build.Variant, errUnknownVariant)
	}

	if build.GoBinary == "" {
		build.GoBinary = "go"
	}

	if build.GopyBinary == "" {
		build.GopyBinary = "gopy"
	}

	if build.PythonBinary == "" {
		build.PythonBinary = "python3"
	}

	if len(build.Sources) == 0 {
		build.Sources = []string{"./pkg/*"}
	}

	if build.OutputDir == "" {
		build.OutputDir = packageName
	}

	if build.CommandTimeout < 0 {
		return fmt.Errorf("command timeout: %w", errNegativeTimeout)
	}

	return nil
}

func validateServer(server *Server) error {
	if server.GRPCAddress == "" {
		server.GRPCAddress = DefaultGRPCAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", server.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if server.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", server.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if server.Timeout < 0 {
		return fmt.Errorf("server timeout: %w", errNegativeTimeout)
	}

	if server.Timeout == 0 {
		server.Timeout = DefaultTimeout
	}

	if server.MaxWorkbookSize <= 0 {
		server.MaxWorkbookSize = DefaultMaxWorkbookSize
	}

	return nil
}

// isPythonIdentifier reports whether name is an ASCII Python identifier.
func isPythonIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return name != ""
}
