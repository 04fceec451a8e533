package extractor

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// CompanyNamePlaceholder is replaced by every configured company name in label terms.
const CompanyNamePlaceholder = "{companyName}"

var whitespace = regexp.MustCompile(`\s+`)

// normalize lowercases s, collapses whitespace runs and trims it.
func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(strings.ToLower(s), " "))
}

// matchesAny reports whether the normalized value contains any normalized term.
func matchesAny(value string, terms []string) bool {
	value = normalize(value)

	for _, term := range terms {
		if strings.Contains(value, normalize(term)) {
			return true
		}
	}

	return false
}

// expandCompanyNames returns terms with the placeholder replaced by each company name.
// Terms without the placeholder are kept once. With no company names the placeholder is dropped.
func expandCompanyNames(terms, companyNames []string) []string {
	if len(companyNames) == 0 {
		companyNames = []string{""}
	}

	expanded := make([]string, 0, len(terms)*len(companyNames))

	for _, term := range terms {
		if !strings.Contains(term, CompanyNamePlaceholder) {
			expanded = append(expanded, term)
			continue
		}

		for _, name := range companyNames {
			expanded = append(expanded, strings.ReplaceAll(term, CompanyNamePlaceholder, name))
		}
	}

	return lo.Uniq(expanded)
}

// adjacentCell returns the cell offset columns to the right of cell.
func adjacentCell(cell string, offset int) (string, error) {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return "", err
	}

	return excelize.CoordinatesToCellName(col+offset, row)
}

// cellInRange reports whether cell lies in the rectangle spanned by start and end.
func cellInRange(cell, start, end string) bool {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return false
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return false
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return false
	}

	return col >= min(startCol, endCol) && col <= max(startCol, endCol) &&
		row >= min(startRow, endRow) && row <= max(startRow, endRow)
}
