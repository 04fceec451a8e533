package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	api "github.com/oshokin/excel-form-extractor/internal/api/grpc/extractor"
	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/repository/cache"
	"github.com/oshokin/excel-form-extractor/internal/version"
	"github.com/oshokin/excel-form-extractor/pkg/extractor"
)

const (
	// ExitUsage is the exit code for invalid invocations.
	ExitUsage = 2
	// ExitExtraction is the exit code for workbooks that could not be extracted.
	ExitExtraction = 3
)

// errPathRequired is returned when no workbook path is given.
var errPathRequired = errors.New("SECCF excel requires path name parameter")

// Options configures a single CLI extraction.
type Options struct {
	// ConfigPath is the YAML configuration; a missing file means defaults.
	ConfigPath string
	// Path is the workbook to extract.
	Path string
	// CompanyNames override the configured company names.
	CompanyNames []string
	// CacheFile overrides the configured cache file.
	CacheFile string
	// NoCache disables the result cache.
	NoCache bool
	// Server is the address of a form-extractor-server; when set the
	// workbook is sent there instead of being extracted locally.
	Server string
	// LogLevel overrides the configured log level.
	LogLevel string
	// Stdout receives the success response; defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives the error response; defaults to os.Stderr.
	Stderr io.Writer
}

// ExitError carries the process exit code for a failed extraction.
// The error response has already been written when it is returned.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Run extracts the workbook named by options and writes a JSON response.
func Run(ctx context.Context, options *Options) error {
	ctx = logger.WithName(ctx, "form-extractor")

	stdout, stderr := outputs(options)

	if options.Path == "" {
		return fail(stderr, ExitUsage, errPathRequired)
	}

	cfg, err := config.LoadOrDefault(options.ConfigPath)
	if err != nil {
		return fail(stderr, ExitUsage, fmt.Errorf("load config: %w", err))
	}

	if err = logger.ApplyLevel(options.LogLevel, cfg.LogLevel); err != nil {
		return fail(stderr, ExitUsage, err)
	}

	names := options.CompanyNames
	if len(names) == 0 {
		names = cfg.Extractor.CompanyNames
	}

	extract := extractLocal
	if options.Server != "" {
		extract = extractRemote
	}

	payload, err := extract(ctx, cfg, options, names)
	if err != nil {
		logger.ErrorKV(ctx, "Extraction failed", "path", options.Path, "error", err)

		return fail(stderr, ExitExtraction, err)
	}

	return writeResponse(stdout, extractor.NewSuccessResponse(payload))
}

func extractLocal(ctx context.Context, cfg *config.Config, options *Options, names []string) (json.RawMessage, error) {
	serviceOptions := []Option{WithCompanyNames(names)}

	cacheFile := options.CacheFile
	if cacheFile == "" {
		cacheFile = cfg.Extractor.CacheFile
	}

	if cacheFile != "" && !options.NoCache {
		repo, err := cache.Open(ctx, cacheFile, version.Producer())
		if err != nil {
			logger.WarnKV(ctx, "Extraction cache is unavailable", "file", cacheFile, "error", err)
		} else {
			defer func() {
				if err := repo.Close(); err != nil {
					logger.WarnKV(ctx, "Unable to close extraction cache", "error", err)
				}
			}()

			serviceOptions = append(serviceOptions, WithCache(repo))
		}
	}

	result, err := NewService(serviceOptions...).ExtractFile(ctx, options.Path, nil)
	if err != nil {
		return nil, err
	}

	return result.Payload, nil
}

func extractRemote(ctx context.Context, cfg *config.Config, options *Options, names []string) (json.RawMessage, error) {
	workbook, err := os.ReadFile(filepath.Clean(options.Path))
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	client, err := api.Dial(ctx, options.Server, api.WithCallTimeout(cfg.Server.Timeout))
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := client.Close(); err != nil {
			logger.WarnKV(ctx, "Unable to close connection", "error", err)
		}
	}()

	reply, err := client.ExtractSECCF(ctx, workbook, names)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Workbook extracted remotely", "server", options.Server, "cached", reply.Cached, "producer", reply.Producer)

	return reply.Payload, nil
}

func outputs(options *Options) (io.Writer, io.Writer) {
	stdout, stderr := options.Stdout, options.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return stdout, stderr
}

func fail(w io.Writer, code int, err error) error {
	if writeErr := writeResponse(w, extractor.NewErrorResponse(err)); writeErr != nil {
		err = errors.Join(err, writeErr)
	}

	return &ExitError{Code: code, Err: err}
}

func writeResponse(w io.Writer, response extractor.Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(response); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
