package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/excel-form-extractor/internal/api/grpc/extractor"
	"github.com/oshokin/excel-form-extractor/internal/api/rest"
	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/fixture"
	"github.com/oshokin/excel-form-extractor/internal/repository/cache"
	"github.com/oshokin/excel-form-extractor/internal/service/server"
	"github.com/oshokin/excel-form-extractor/internal/version"
	"github.com/oshokin/excel-form-extractor/pkg/extractor"
)

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs form-extractor-server with a temporary configuration.
// The returned function stops it and waits for a clean exit.
func startServer(t *testing.T, cacheFile string) (grpcAddress, httpAddress string, stop func()) {
	t.Helper()

	grpcAddress, httpAddress = reservePort(t), reservePort(t)

	cfg := config.Default()
	cfg.Server.GRPCAddress = grpcAddress
	cfg.Server.HTTPAddress = httpAddress
	cfg.Server.Timeout = 5 * time.Second
	cfg.Server.AllowPathRequests = true
	cfg.Extractor.CacheFile = cacheFile

	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(cfgPath, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	waitForListener(t, grpcAddress)
	waitForListener(t, httpAddress)

	return grpcAddress, httpAddress, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func waitForListener(t *testing.T, address string) {
	t.Helper()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", address, 100*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)
}

// TestServer_GRPCRoundtrip extracts the same workbook twice and checks the second answer comes from the cache.
func TestServer_GRPCRoundtrip(t *testing.T) {
	t.Parallel()

	cacheFile := filepath.Join(t.TempDir(), "extractions.db")
	grpcAddress, _, stop := startServer(t, cacheFile)

	ctx := context.Background()

	client, err := api.Dial(ctx, grpcAddress, api.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	workbook := fixture.Workbook(t)

	first, err := client.ExtractSECCF(ctx, workbook, []string{"Initech"})
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, version.Producer(), first.Producer)

	second, err := client.ExtractSECCF(ctx, workbook, []string{"Initech"})
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.JSONEq(t, string(first.Payload), string(second.Payload))

	var extraction extractor.SECCFExtraction
	require.NoError(t, json.Unmarshal(second.Payload, &extraction))
	require.Equal(t, fixture.PartNumber, extraction.BuyerDetails.PartNumber)

	path := filepath.Join(t.TempDir(), "seccf.xlsx")
	require.NoError(t, os.WriteFile(path, workbook, 0o600))

	byPath, err := client.ExtractSECCFPath(ctx, path, []string{"Initech"})
	require.NoError(t, err)
	require.True(t, byPath.Cached)

	require.NoError(t, client.Close())
	stop()

	// The cache outlives the server.
	repo, err := cache.Open(ctx, cacheFile, version.Producer())
	require.NoError(t, err)

	defer func() {
		require.NoError(t, repo.Close())
	}()

	_, err = repo.Get(ctx, cache.Key(workbook, []string{"Initech"}))
	require.NoError(t, err)
}

// TestServer_HTTPRoundtrip posts a workbook to the HTTP API.
func TestServer_HTTPRoundtrip(t *testing.T) {
	t.Parallel()

	_, httpAddress, stop := startServer(t, "")
	defer stop()

	ctx := context.Background()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+httpAddress+"/v1/extract/seccf?company=Initech", bytes.NewReader(fixture.Workbook(t)))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "MISS", resp.Header.Get(rest.HeaderCache))
	require.NotEmpty(t, resp.Header.Get(rest.HeaderRequestID))

	var body struct {
		Status string                    `json:"status"`
		Data   extractor.SECCFExtraction `json:"data"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, extractor.StatusSuccess, body.Status)
	require.Equal(t, fixture.PartNumber, body.Data.BuyerDetails.PartNumber)
}
