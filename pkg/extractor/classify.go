package extractor

import "fmt"

// readText returns the value offset columns right of the label cell.
func (e *Extractor) readText(sheet, labelCell string, offset int) (string, error) {
	cell, err := adjacentCell(labelCell, offset)
	if err != nil {
		return "", err
	}

	return e.cellValue(sheet, cell)
}

// readCheckbox returns the checked state of the box next to the label cell.
func (e *Extractor) readCheckbox(sheet, labelCell string, box Choice) (bool, error) {
	cell, err := adjacentCell(labelCell, box.Offset)
	if err != nil {
		return false, err
	}

	return e.checkboxChecked(sheet, cell, box.Terms)
}

// readChoice returns the label of the only checked choice, or "" when none or
// several are checked.
func (e *Extractor) readChoice(sheet, labelCell string, choices []Choice) (string, error) {
	selected := ""
	checkedCount := 0

	for _, choice := range choices {
		checked, err := e.readCheckbox(sheet, labelCell, choice)
		if err != nil {
			return "", fmt.Errorf("choice %s: %w", choice.Label, err)
		}

		if checked {
			selected = choice.Label
			checkedCount++
		}
	}

	if checkedCount != 1 {
		return "", nil
	}

	return selected, nil
}
