package extractor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Extractor reads one SECCF workbook. It is safe for use by one goroutine at a time.
type Extractor struct {
	mu           sync.Mutex
	file         *excelize.File
	companyNames []string
	// controls caches the form controls of each sheet.
	controls   map[string][]excelize.FormControl
	extraction *SECCFExtraction
}

// Open opens the workbook at path. Company names expand the {companyName}
// placeholder in label terms.
func Open(path string, companyNames []string) (*Extractor, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	return newExtractor(f, companyNames), nil
}

// OpenReader reads a workbook from r.
func OpenReader(r io.Reader, companyNames []string) (*Extractor, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	return newExtractor(f, companyNames), nil
}

func newExtractor(f *excelize.File, companyNames []string) *Extractor {
	return &Extractor{
		file:         f,
		companyNames: append([]string(nil), companyNames...),
		controls:     make(map[string][]excelize.FormControl),
	}
}

// Close releases the workbook. Further calls return ErrClosed.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}

	err := e.file.Close()
	e.file = nil

	return err
}

// SheetNames lists the workbook sheets in order.
func (e *Extractor) SheetNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}

	return e.file.GetSheetList()
}

// FindSheet returns the sheet whose name contains word, ignoring case.
// When several sheets match, the last one wins.
func (e *Extractor) FindSheet(word string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return "", ErrClosed
	}

	return e.findSheet(word)
}

func (e *Extractor) findSheet(word string) (string, error) {
	found := ""
	needle := strings.ToLower(word)

	for _, sheet := range e.file.GetSheetList() {
		if strings.Contains(strings.ToLower(sheet), needle) {
			found = sheet
		}
	}

	if found == "" {
		return "", &SheetNotFoundError{SearchWord: word}
	}

	return found, nil
}

// CellValue returns the trimmed value of cell. An empty cell inside a merged
// range yields the merged range's value.
func (e *Extractor) CellValue(sheet, cell string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return "", ErrClosed
	}

	return e.cellValue(sheet, cell)
}

func (e *Extractor) cellValue(sheet, cell string) (string, error) {
	value, err := e.file.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("get cell value %s!%s: %w", sheet, cell, err)
	}

	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}

	merged, err := e.file.GetMergeCells(sheet)
	if err != nil {
		return "", fmt.Errorf("get merged cells of %s: %w", sheet, err)
	}

	for i := range merged {
		mc := &merged[i]
		if cellInRange(cell, mc.GetStartAxis(), mc.GetEndAxis()) {
			return strings.TrimSpace(mc.GetCellValue()), nil
		}
	}

	return "", nil
}

// checkboxChecked returns the checked state of the checkbox anchored at cell
// whose text equals one of terms, ignoring case. Missing controls read as unchecked.
func (e *Extractor) checkboxChecked(sheet, cell string, terms []string) (bool, error) {
	controls, err := e.formControls(sheet)
	if err != nil {
		return false, err
	}

	for i := range controls {
		control := &controls[i]
		if control.Type != excelize.FormControlCheckBox || control.Cell != cell {
			continue
		}

		if controlTextMatches(control, terms) {
			return control.Checked, nil
		}
	}

	return false, nil
}

func (e *Extractor) formControls(sheet string) ([]excelize.FormControl, error) {
	if controls, ok := e.controls[sheet]; ok {
		return controls, nil
	}

	controls, err := e.file.GetFormControls(sheet)
	if err != nil {
		return nil, fmt.Errorf("get form controls of %s: %w", sheet, err)
	}

	e.controls[sheet] = controls

	return controls, nil
}

// controlTextMatches compares the control caption and each rich text run to terms.
func controlTextMatches(control *excelize.FormControl, terms []string) bool {
	texts := make([]string, 0, len(control.Paragraph)+1)
	if control.Text != "" {
		texts = append(texts, control.Text)
	}

	for _, run := range control.Paragraph {
		texts = append(texts, run.Text)
	}

	for _, text := range texts {
		text = strings.TrimSpace(text)

		for _, term := range terms {
			if strings.EqualFold(text, term) {
				return true
			}
		}
	}

	return false
}

func cellName(column string, row int) string {
	return column + strconv.Itoa(row)
}
