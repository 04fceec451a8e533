package extractor

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultCompanyNames are used by ExtractSECCF when no company names are given.
var DefaultCompanyNames = []string{"Amazon", "Amazon Inc", "Aamazon Ltd"}

// ExtractSECCF extracts the workbook at path and returns a JSON Response.
// It never fails; errors are reported in the response status.
func ExtractSECCF(path string, companyNames []string) string {
	if len(companyNames) == 0 {
		companyNames = DefaultCompanyNames
	}

	return encodeResponse(extractFile(context.Background(), path, companyNames))
}

// NewSuccessResponse wraps extracted data, either a *SECCFExtraction or its JSON encoding.
func NewSuccessResponse(data any) Response {
	return Response{
		Status:  StatusSuccess,
		Message: "SECCF extraction completed",
		Data:    data,
	}
}

// NewErrorResponse reports err.
func NewErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: err.Error(),
	}
}

func extractFile(ctx context.Context, path string, companyNames []string) Response {
	e, err := Open(path, companyNames)
	if err != nil {
		return NewErrorResponse(err)
	}

	defer func() {
		_ = e.Close()
	}()

	extraction, err := e.Extract(ctx)
	if err != nil {
		return NewErrorResponse(err)
	}

	return NewSuccessResponse(extraction)
}

func encodeResponse(response Response) string {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Sprintf(`{"status":%q,"message":%q}`, StatusError, err.Error())
	}

	return string(data)
}
