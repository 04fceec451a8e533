package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	api "github.com/oshokin/excel-form-extractor/internal/api/grpc/extractor"
	"github.com/oshokin/excel-form-extractor/internal/fixture"
	"github.com/oshokin/excel-form-extractor/pkg/extractor"
)

type cliResponse struct {
	Status  string                     `json:"status"`
	Message string                     `json:"message"`
	Data    *extractor.SECCFExtraction `json:"data"`
}

func runCLI(t *testing.T, options *Options) (*cliResponse, *cliResponse, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	options.Stdout = &stdout
	options.Stderr = &stderr

	if options.ConfigPath == "" {
		options.ConfigPath = filepath.Join(t.TempDir(), "missing.yaml")
	}

	err := Run(context.Background(), options)

	parse := func(buf *bytes.Buffer) *cliResponse {
		if buf.Len() == 0 {
			return nil
		}

		var response cliResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &response))

		return &response
	}

	return parse(&stdout), parse(&stderr), err
}

func writeFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seccf.xlsx")
	require.NoError(t, os.WriteFile(path, fixture.Workbook(t), 0o600))

	return path
}

func TestRunPrintsSuccessResponse(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := runCLI(t, &Options{Path: writeFixture(t)})
	require.NoError(t, err)
	require.Nil(t, stderr)
	require.NotNil(t, stdout)
	require.Equal(t, extractor.StatusSuccess, stdout.Status)
	require.Equal(t, "SECCF extraction completed", stdout.Message)
	require.Equal(t, fixture.PartNumber, stdout.Data.BuyerDetails.PartNumber)
}

func TestRunMissingPath(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := runCLI(t, &Options{})
	require.Nil(t, stdout)
	require.NotNil(t, stderr)
	require.Equal(t, extractor.StatusError, stderr.Status)
	require.Equal(t, "SECCF excel requires path name parameter", stderr.Message)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitUsage, exitErr.Code)
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "form-extractor.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("build:\n  variant: nightly\n"), 0o600))

	_, stderr, err := runCLI(t, &Options{ConfigPath: configPath, Path: writeFixture(t)})
	require.NotNil(t, stderr)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitUsage, exitErr.Code)
}

func TestRunExtractionFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	stdout, stderr, err := runCLI(t, &Options{Path: path})
	require.Nil(t, stdout)
	require.NotNil(t, stderr)
	require.Equal(t, extractor.StatusError, stderr.Status)
	require.NotEmpty(t, stderr.Message)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitExtraction, exitErr.Code)
}

func TestRunWithCacheFile(t *testing.T) {
	t.Parallel()

	cacheFile := filepath.Join(t.TempDir(), "cache", "extractions.db")
	path := writeFixture(t)

	for range 2 {
		stdout, _, err := runCLI(t, &Options{Path: path, CacheFile: cacheFile})
		require.NoError(t, err)
		require.Equal(t, fixture.PartNumber, stdout.Data.BuyerDetails.PartNumber)
	}

	require.FileExists(t, cacheFile)
}

func TestRunNoCacheSkipsCacheFile(t *testing.T) {
	t.Parallel()

	cacheFile := filepath.Join(t.TempDir(), "extractions.db")

	_, _, err := runCLI(t, &Options{Path: writeFixture(t), CacheFile: cacheFile, NoCache: true})
	require.NoError(t, err)
	require.NoFileExists(t, cacheFile)
}

func TestRunAgainstServer(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	api.Register(server, api.NewServer(NewService()))

	go func() {
		_ = server.Serve(lis)
	}()

	t.Cleanup(server.Stop)

	stdout, stderr, err := runCLI(t, &Options{Path: writeFixture(t), Server: lis.Addr().String()})
	require.NoError(t, err)
	require.Nil(t, stderr)
	require.Equal(t, extractor.StatusSuccess, stdout.Status)
	require.Equal(t, fixture.PartNumber, stdout.Data.BuyerDetails.PartNumber)
}

func TestRunAgainstServerMissingWorkbook(t *testing.T) {
	t.Parallel()

	_, stderr, err := runCLI(t, &Options{
		Path:   filepath.Join(t.TempDir(), "missing.xlsx"),
		Server: "127.0.0.1:1",
	})
	require.NotNil(t, stderr)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, ExitExtraction, exitErr.Code)
}
