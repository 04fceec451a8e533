package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/service/server"
	"github.com/oshokin/excel-form-extractor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// httpAddress overrides the configured HTTP listen address.
	httpAddress string
	// cacheFile overrides the configured cache file.
	cacheFile string
	// cacheRetention prunes older cache entries at startup.
	cacheRetention time.Duration

	// rootCmd represents the base command for running the extraction server.
	rootCmd = &cobra.Command{
		Use:   "form-extractor-server [grpc-listen-address]",
		Short: "Serve workbook extraction over gRPC and HTTP.",
		Long: `Starts the FormExtractor gRPC service and, when an HTTP address is configured,
the HTTP API. Both share one extraction cache.

The listen address argument overrides server.grpc_address from the configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var grpcAddress string
			if len(args) > 0 {
				grpcAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:     configPath,
				GRPCAddress:    grpcAddress,
				HTTPAddress:    httpAddress,
				CacheFile:      cacheFile,
				CacheRetention: cacheRetention,
				LogLevel:       logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the form-extractor-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&httpAddress, "http", "", "HTTP listen address, e.g. :8080")
	rootCmd.Flags().StringVar(&cacheFile, "cache", "", "path to the extraction cache file")
	rootCmd.Flags().DurationVar(&cacheRetention, "cache-retention", 30*24*time.Hour,
		"drop cache entries older than this at startup; 0 keeps everything")
}
