package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	domain "github.com/oshokin/excel-form-extractor/internal/domain/extraction"
	"github.com/oshokin/excel-form-extractor/internal/logger"
	"github.com/oshokin/excel-form-extractor/internal/version"
	"github.com/oshokin/excel-form-extractor/pkg/extractor"
)

const (
	// HeaderCache reports whether a response was served from the cache.
	HeaderCache = "X-Cache"
	// CompanyParameter is the repeatable query parameter carrying company names.
	CompanyParameter = "company"
)

// Service abstracts the extraction operations the transport layer depends on.
type Service interface {
	Extract(ctx context.Context, req *domain.Request) (*domain.Result, error)
}

type handler struct {
	service Service
	// maxBodySize limits request bodies; zero means no limit.
	maxBodySize int64
	// timeout bounds a single extraction; zero means no limit.
	timeout time.Duration
}

// Option configures the router.
type Option func(*handler)

// WithMaxBodySize limits request bodies to size bytes.
func WithMaxBodySize(size int64) Option {
	return func(h *handler) {
		h.maxBodySize = size
	}
}

// WithTimeout bounds every extraction.
func WithTimeout(timeout time.Duration) Option {
	return func(h *handler) {
		h.timeout = timeout
	}
}

// NewRouter returns the HTTP API handler.
func NewRouter(service Service, opts ...Option) http.Handler {
	h := &handler{service: service}

	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(requestID, middleware.Recoverer)

	r.Get("/healthz", health)
	r.Route("/v1/extract", func(r chi.Router) {
		r.Post("/seccf", h.extractSECCF)
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, render.M{"status": "ok", "producer": version.Producer()})
}

func (h *handler) extractSECCF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	body := io.Reader(r.Body)
	if h.maxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	workbook, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = domain.ErrWorkbookTooLarge
		}

		renderError(w, r, err)

		return
	}

	result, err := h.service.Extract(ctx, &domain.Request{
		Workbook:     workbook,
		CompanyNames: r.URL.Query()[CompanyParameter],
	})
	if err != nil {
		logger.WarnKV(ctx, "Extraction request failed", "error", err)
		renderError(w, r, err)

		return
	}

	cacheStatus := "MISS"
	if result.Cached {
		cacheStatus = "HIT"
	}

	w.Header().Set(HeaderCache, cacheStatus)
	render.JSON(w, r, extractor.NewSuccessResponse(json.RawMessage(result.Payload)))
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := http.StatusInternalServerError, "unable to extract workbook"

	switch {
	case errors.Is(err, domain.ErrWorkbookTooLarge):
		code, message = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidWorkbook):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		code, message = http.StatusGatewayTimeout, err.Error()
	}

	render.Status(r, code)
	render.JSON(w, r, extractor.NewErrorResponse(errors.New(message)))
}
