package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oshokin/excel-form-extractor/internal/logger"
)

const (
	firstHeaderRow   = 10
	lastHeaderRow    = 12
	defaultHeaderRow = 11
)

// controlledContent reads the component table. Rows are read below the header
// until the first column's cell is empty.
func (e *Extractor) controlledContent(
	ctx context.Context,
	sheet string,
	columns []column,
) ([]ControlledContentRow, error) {
	headerRow, err := e.findHeaderRow(sheet, columns)
	if err != nil {
		return nil, err
	}

	cols, err := e.file.GetCols(sheet)
	if err != nil {
		return nil, fmt.Errorf("get columns of %s: %w", sheet, err)
	}

	found := make([]string, len(columns))

	for i, c := range columns {
		name, err := findColumn(cols, headerRow, c.terms)
		if err != nil {
			logger.WarnKV(ctx, "Column not found", "sheet", sheet, "field", c.name, "error", err)
			continue
		}

		found[i] = name
	}

	if len(columns) == 0 || found[0] == "" {
		return nil, nil
	}

	var rows []ControlledContentRow

	for row := headerRow + 1; ; row++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		first, err := e.file.GetCellValue(sheet, cellName(found[0], row))
		if err != nil {
			return nil, err
		}

		if first == "" {
			break
		}

		content := ControlledContentRow{SheetName: sheet}

		for i, c := range columns {
			if found[i] == "" {
				continue
			}

			value, err := e.file.GetCellValue(sheet, cellName(found[i], row))
			if err != nil {
				return nil, err
			}

			*c.dst(&content) = strings.TrimSpace(value)
		}

		rows = append(rows, content)
	}

	return rows, nil
}

// findHeaderRow returns the first row between 10 and 12 whose column A holds a
// header term, or 11 when none does.
func (e *Extractor) findHeaderRow(sheet string, columns []column) (int, error) {
	for row := firstHeaderRow; row <= lastHeaderRow; row++ {
		value, err := e.file.GetCellValue(sheet, cellName("A", row))
		if err != nil {
			return 0, err
		}

		value = strings.ToLower(value)

		for _, c := range columns {
			for _, term := range c.terms {
				if strings.Contains(value, strings.ToLower(term)) {
					return row, nil
				}
			}
		}
	}

	return defaultHeaderRow, nil
}

// findColumn returns the name of the first column whose header cell contains a term.
func findColumn(cols [][]string, headerRow int, terms []string) (string, error) {
	for i, col := range cols {
		if len(col) < headerRow {
			continue
		}

		if matchesAny(col[headerRow-1], terms) {
			return excelize.ColumnNumberToName(i + 1)
		}
	}

	return "", fmt.Errorf("%w: %v", errColumnNotFound, terms)
}
