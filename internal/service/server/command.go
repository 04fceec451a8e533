package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/excel-form-extractor/internal/api/grpc/extractor"
	"github.com/oshokin/excel-form-extractor/internal/api/rest"
	"github.com/oshokin/excel-form-extractor/internal/config"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/repository/cache"
	"github.com/oshokin/excel-form-extractor/internal/service/extraction"
	"github.com/oshokin/excel-form-extractor/internal/version"
)

// Options controls the form-extractor-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file; a missing file means defaults.
	ConfigPath string
	// GRPCAddress overrides the configured gRPC listen address.
	GRPCAddress string
	// HTTPAddress overrides the configured HTTP listen address.
	HTTPAddress string
	// CacheFile overrides the configured cache file.
	CacheFile string
	// LogLevel overrides the configured log level.
	LogLevel string
	// CacheRetention prunes cache entries older than this at startup; zero keeps everything.
	CacheRetention time.Duration

	// ready, when set, receives the bound addresses once both listeners are up.
	ready func(grpcAddress, httpAddress net.Addr)
}

const (
	// readHeaderTimeout bounds reading HTTP request headers.
	readHeaderTimeout = 10 * time.Second
	// shutdownTimeout bounds the HTTP graceful shutdown.
	shutdownTimeout = 15 * time.Second
)

// Run starts the gRPC and HTTP listeners and blocks until ctx is cancelled or a listener fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "form-extractor-server")

	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.ApplyLevel(opts.LogLevel, settings.LogLevel); err != nil {
		return err
	}

	applyOverrides(settings, opts)

	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	serviceOptions := []extraction.Option{
		extraction.WithCompanyNames(settings.Extractor.CompanyNames),
		extraction.WithMaxWorkbookSize(settings.Server.MaxWorkbookSize),
	}

	if settings.Extractor.CacheFile != "" {
		repo, err := openCache(ctx, settings.Extractor.CacheFile, opts.CacheRetention)
		if err != nil {
			return err
		}

		defer func() {
			if err := repo.Close(); err != nil {
				logger.WarnKV(ctx, "Unable to close extraction cache", "error", err)
			}
		}()

		serviceOptions = append(serviceOptions, extraction.WithCache(repo))
	}

	svc := extraction.NewService(serviceOptions...)

	lc := net.ListenConfig{}

	grpcListener, err := lc.Listen(ctx, "tcp", settings.Server.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.Server.GRPCAddress, err)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(api.MaxMessageSize),
		grpc.UnaryInterceptor(timeoutInterceptor(settings.Server.Timeout)),
	)
	api.Register(grpcServer, api.NewServer(svc, api.WithPathRequests(settings.Server.AllowPathRequests)))

	var (
		httpServer   *http.Server
		httpListener net.Listener
	)

	if settings.Server.HTTPAddress != "" {
		httpListener, err = lc.Listen(ctx, "tcp", settings.Server.HTTPAddress)
		if err != nil {
			_ = grpcListener.Close()

			return fmt.Errorf("listen on %s: %w", settings.Server.HTTPAddress, err)
		}

		httpServer = &http.Server{
			Handler: rest.NewRouter(svc,
				rest.WithMaxBodySize(settings.Server.MaxWorkbookSize),
				rest.WithTimeout(settings.Server.Timeout)),
			ReadHeaderTimeout: readHeaderTimeout,
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}
	}

	logger.InfoKV(ctx, "Extraction server listening",
		"grpc_address", grpcListener.Addr().String(),
		"http_address", addrString(httpListener),
		"cache_file", settings.Extractor.CacheFile,
		"version", version.Short())

	if opts.ready != nil {
		opts.ready(grpcListener.Addr(), addrOf(httpListener))
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down servers")

		grpcServer.GracefulStop()

		if httpServer == nil {
			return nil
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	if httpServer != nil {
		group.Go(func() error {
			if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP: %w", err)
			}

			return nil
		})
	}

	err = group.Wait()

	logger.Info(ctx, "Extraction server stopped")

	return err
}

func applyOverrides(settings *config.Config, opts *Options) {
	if opts.GRPCAddress != "" {
		settings.Server.GRPCAddress = opts.GRPCAddress
	}

	if opts.HTTPAddress != "" {
		settings.Server.HTTPAddress = opts.HTTPAddress
	}

	if opts.CacheFile != "" {
		settings.Extractor.CacheFile = opts.CacheFile
	}
}

func openCache(ctx context.Context, path string, retention time.Duration) (*cache.BoltRepository, error) {
	repo, err := cache.Open(ctx, path, version.Producer())
	if err != nil {
		return nil, fmt.Errorf("open extraction cache: %w", err)
	}

	if retention <= 0 {
		return repo, nil
	}

	pruned, err := repo.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.WarnKV(ctx, "Unable to prune extraction cache", "error", err)
	} else if pruned > 0 {
		logger.InfoKV(ctx, "Extraction cache pruned", "entries", pruned)
	}

	return repo, nil
}

// timeoutInterceptor bounds every unary call by timeout.
func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func addrOf(lis net.Listener) net.Addr {
	if lis == nil {
		return nil
	}

	return lis.Addr()
}

func addrString(lis net.Listener) string {
	if addr := addrOf(lis); addr != nil {
		return addr.String()
	}

	return ""
}
