package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domain "github.com/oshokin/excel-form-extractor/internal/domain/extraction"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/repository/cache"
	"github.com/oshokin/excel-form-extractor/internal/version"
	"github.com/oshokin/excel-form-extractor/pkg/extractor"
)

// Service extracts SECCF workbooks, consulting the cache when one is configured.
type Service struct {
	// cache memoises results; nil disables caching.
	cache cache.Repository
	// companyNames are used when a request carries none.
	companyNames []string
	// maxWorkbookSize limits workbook payloads; zero means no limit.
	maxWorkbookSize int64
	// producer tags computed results.
	producer string
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the result cache.
func WithCache(repo cache.Repository) Option {
	return func(s *Service) {
		s.cache = repo
	}
}

// WithCompanyNames sets the default company names.
func WithCompanyNames(names []string) Option {
	return func(s *Service) {
		if names = domain.NormalizeCompanyNames(names); len(names) > 0 {
			s.companyNames = names
		}
	}
}

// WithMaxWorkbookSize limits accepted workbooks to size bytes.
func WithMaxWorkbookSize(size int64) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxWorkbookSize = size
		}
	}
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		companyNames: extractor.DefaultCompanyNames,
		producer:     version.Producer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Extract runs the extraction for req.
func (s *Service) Extract(ctx context.Context, req *domain.Request) (*domain.Result, error) {
	started := time.Now()

	if req == nil || len(req.Workbook) == 0 {
		return nil, fmt.Errorf("%w: workbook is required", domain.ErrInvalidRequest)
	}

	if s.maxWorkbookSize > 0 && int64(len(req.Workbook)) > s.maxWorkbookSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrWorkbookTooLarge, len(req.Workbook), s.maxWorkbookSize)
	}

	names := domain.NormalizeCompanyNames(req.CompanyNames)
	if len(names) == 0 {
		names = s.companyNames
	}

	key := cache.Key(req.Workbook, names)

	if payload, ok := s.lookup(ctx, key); ok {
		logger.DebugKV(ctx, "Serving cached extraction", "bytes", len(req.Workbook))

		return &domain.Result{
			Payload:  payload,
			Cached:   true,
			Producer: s.producer,
			Duration: time.Since(started),
		}, nil
	}

	payload, err := s.extract(ctx, req.Workbook, names)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, payload)

	result := &domain.Result{
		Payload:  payload,
		Producer: s.producer,
		Duration: time.Since(started),
	}

	logger.InfoKV(ctx, "Workbook extracted", "bytes", len(req.Workbook), "duration", result.Duration)

	return result, nil
}

// ExtractFile reads the workbook at path and extracts it.
func (s *Service) ExtractFile(ctx context.Context, path string, companyNames []string) (*domain.Result, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	if s.maxWorkbookSize > 0 && info.Size() > s.maxWorkbookSize {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkbookTooLarge, path)
	}

	workbook, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	return s.Extract(logger.WithKV(ctx, "path", path), &domain.Request{
		Workbook:     workbook,
		CompanyNames: companyNames,
	})
}

func (s *Service) extract(ctx context.Context, workbook []byte, names []string) (json.RawMessage, error) {
	e, err := extractor.OpenReader(bytes.NewReader(workbook), names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWorkbook, err)
	}

	defer func() {
		if err := e.Close(); err != nil {
			logger.WarnKV(ctx, "Unable to close workbook", "error", err)
		}
	}()

	extraction, err := e.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract workbook: %w", err)
	}

	payload, err := json.Marshal(extraction)
	if err != nil {
		return nil, fmt.Errorf("encode extraction: %w", err)
	}

	return payload, nil
}

func (s *Service) lookup(ctx context.Context, key []byte) (json.RawMessage, bool) {
	if s.cache == nil {
		return nil, false
	}

	entry, err := s.cache.Get(ctx, key)

	switch {
	case err == nil:
		return entry.Payload, true
	case errors.Is(err, cache.ErrNotFound):
	default:
		logger.WarnKV(ctx, "Unable to read extraction cache", "error", err)
	}

	return nil, false
}

func (s *Service) store(ctx context.Context, key []byte, payload json.RawMessage) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Put(ctx, key, payload); err != nil {
		logger.WarnKV(ctx, "Unable to write extraction cache", "error", err)
	}
}
