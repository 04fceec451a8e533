package release

import (
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/excel-form-extractor/internal/config"
)

const (
	// PackageVersionVariable carries the version for local builds.
	PackageVersionVariable = "PACKAGE_VERSION"
	// ReleaseVersionVariable carries the version for CI builds.
	ReleaseVersionVariable = "RELEASE_VERSION"
)

// LookupFunc reads an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// MissingVersionError reports that the version variable is not set.
// It is fatal: nothing is packaged without a version.
type MissingVersionError struct {
	// Variable is the environment variable that was consulted.
	Variable string
}

func (e *MissingVersionError) Error() string {
	return fmt.Sprintf("release version is not set: environment variable %s is empty or missing", e.Variable)
}

// VersionVariable returns the environment variable consulted for the build variant.
func VersionVariable(variant string) string {
	if variant == config.VariantLocal {
		return PackageVersionVariable
	}

	return ReleaseVersionVariable
}

// ResolveVersion reads the named variable and strips a leading "v".
// The remainder is returned as is, without semantic version validation.
func ResolveVersion(lookup LookupFunc, variable string) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, ok := lookup(variable)
	if !ok || value == "" {
		return "", &MissingVersionError{Variable: variable}
	}

	return strings.TrimPrefix(value, "v"), nil
}
