package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/service/builder"
	"github.com/oshokin/excel-form-extractor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// variant overrides build.variant from the configuration.
	variant string
	// workDir is the project root.
	workDir string

	// rootCmd represents the base command of the packager.
	rootCmd = &cobra.Command{
		Use:   "form-extractor-packager",
		Short: "Build and describe the Python distribution of the extractor.",
	}

	// buildCmd runs the extension build step.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the CPython extension and write the release manifest.",
		Long: `Resolves the release version from RELEASE_VERSION (ci variant) or
PACKAGE_VERSION (local variant), then for the ci variant installs pybindgen,
runs gopy against the Go sources and rewrites the package __init__.py.
A release manifest with file checksums is written for both variants.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			_, err := builder.Run(ctx, options())

			return err
		},
	}

	// resolveVersionCmd prints the release version.
	resolveVersionCmd = &cobra.Command{
		Use:   "resolve-version",
		Short: "Print the release version with any leading v removed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := builder.ResolveVersion(cmd.Context(), options())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)

			return err
		},
	}
)

func options() *builder.Options {
	return &builder.Options{
		ConfigPath: configPath,
		Variant:    variant,
		WorkDir:    workDir,
		LogLevel:   logLevel,
	}
}

// Execute runs the form-extractor-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "build variant: ci or local")

	buildCmd.Flags().StringVarP(&workDir, "workdir", "C", "", "project root (default: current directory)")

	rootCmd.AddCommand(buildCmd, resolveVersionCmd)
}
