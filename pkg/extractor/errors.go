package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when the extractor is used after Close.
	ErrClosed = errors.New("extractor is closed")
	// ErrNotExtracted is returned by JSON before Extract has run.
	ErrNotExtracted = errors.New("nothing has been extracted yet")

	errColumnNotFound = errors.New("column not found")
	errLabelNotFound  = errors.New("label not found")
)

// SheetNotFoundError is returned when no sheet name contains the search word.
type SheetNotFoundError struct {
	SearchWord string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet name not found for search word %q", e.SearchWord)
}
