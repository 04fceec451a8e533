package extraction

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
)

var (
	// ErrInvalidRequest is returned for requests without a workbook.
	ErrInvalidRequest = errors.New("invalid extraction request")
	// ErrWorkbookTooLarge is returned when a workbook exceeds the configured limit.
	ErrWorkbookTooLarge = errors.New("workbook is too large")
	// ErrInvalidWorkbook is returned when the payload is not a readable xlsx workbook.
	ErrInvalidWorkbook = errors.New("invalid workbook")
)

// Request asks for a SECCF extraction.
type Request struct {
	// Workbook holds the xlsx bytes.
	Workbook []byte
	// CompanyNames expand the {companyName} placeholder; empty means the configured defaults.
	CompanyNames []string
}

// Result is a finished extraction.
type Result struct {
	// Payload is the extraction encoded as JSON.
	Payload json.RawMessage
	// Cached is true when the payload came from the result cache.
	Cached bool
	// Producer identifies the extractor build that computed the payload.
	Producer string
	// Duration is the time spent serving the request.
	Duration time.Duration
}

// NormalizeCompanyNames trims names and drops empty entries and duplicates.
func NormalizeCompanyNames(names []string) []string {
	return lo.Uniq(lo.Compact(lo.Map(names, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})))
}
