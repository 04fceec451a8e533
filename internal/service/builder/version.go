package builder

import (
	"context"

	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/release"
)

// ResolveVersion returns the release version for the configured variant
// without running any build step.
func ResolveVersion(ctx context.Context, opts *Options) (string, error) {
	if opts == nil {
		return "", errOptionsNotSet
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return "", err
	}

	variable := release.VersionVariable(cfg.Build.Variant)

	version, err := release.ResolveVersion(opts.Lookup, variable)
	if err != nil {
		return "", err
	}

	logger.DebugKV(ctx, "Resolved release version", "variable", variable, "version", version)

	return version, nil
}
