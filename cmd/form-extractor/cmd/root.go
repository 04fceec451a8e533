package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/service/extraction"
	"github.com/oshokin/excel-form-extractor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// companyNames override the configured company names.
	companyNames []string
	// cacheFile overrides the configured cache file.
	cacheFile string
	// noCache disables the result cache.
	noCache bool
	// serverAddress sends workbooks to a form-extractor-server.
	serverAddress string

	// rootCmd represents the base command of the extractor CLI.
	rootCmd = &cobra.Command{
		Use:   "form-extractor",
		Short: "Extract Excel form content into structured JSON.",
	}

	// seccfCmd extracts a Supplier Export Control Classification Form.
	seccfCmd = &cobra.Command{
		Use:   "seccf <workbook.xlsx>",
		Short: "Extract a SECCF workbook.",
		Long: `Extracts the buyer details, product details and controlled content sections
of a SECCF workbook and prints a JSON response to stdout.

On failure a JSON error response is printed to stderr and the process exits
with code 2 for usage errors or 3 when the workbook could not be extracted.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var path string
			if len(args) > 0 {
				path = args[0]
			}

			options := &extraction.Options{
				ConfigPath:   configPath,
				Path:         path,
				CompanyNames: companyNames,
				CacheFile:    cacheFile,
				NoCache:      noCache,
				Server:       serverAddress,
				LogLevel:     logLevel,
			}

			return extraction.Run(ctx, options)
		},
	}
)

// Execute runs the form-extractor CLI and exits with the extraction exit code on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitErr *extraction.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	os.Exit(extraction.ExitUsage)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	seccfCmd.Flags().StringArrayVar(&companyNames, "company", nil, "company name for label matching (repeatable)")
	seccfCmd.Flags().StringVar(&cacheFile, "cache", "", "path to the extraction cache file")
	seccfCmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the extraction cache")
	seccfCmd.Flags().StringVar(&serverAddress, "server", "", "extract on a form-extractor-server at this gRPC address")

	rootCmd.AddCommand(seccfCmd)
}
