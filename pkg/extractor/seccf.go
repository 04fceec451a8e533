package extractor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/oshokin/excel-form-extractor/internal/logger"
)

// Sheet search words.
const (
	BuyerDetailsSheet      = "buyer details"
	ProductDetailsSheet    = "product details"
	ControlledContentSheet = "controlled content"
)

// Extract reads every section of the form. A missing sheet leaves its section
// empty; a field that cannot be read is logged and left at its zero value.
func (e *Extractor) Extract(ctx context.Context) (*SECCFExtraction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil, ErrClosed
	}

	ctx = logger.WithName(ctx, "extractor")
	extraction := &SECCFExtraction{}

	if sheet, ok := e.sheetOrLog(ctx, BuyerDetailsSheet); ok {
		details := &BuyerDetails{SheetName: sheet}
		if err := extractFields(ctx, e, sheet, details, buyerFields(e.companyNames)); err != nil {
			return nil, err
		}

		extraction.BuyerDetails = details
	}

	if sheet, ok := e.sheetOrLog(ctx, ProductDetailsSheet); ok {
		details := &ProductDetails{SheetName: sheet}
		if err := extractFields(ctx, e, sheet, details, productFields(e.companyNames)); err != nil {
			return nil, err
		}

		extraction.ProductDetails = details
	}

	if sheet, ok := e.sheetOrLog(ctx, ControlledContentSheet); ok {
		rows, err := e.controlledContent(ctx, sheet, controlledContentColumns())
		if err != nil {
			return nil, err
		}

		extraction.ControlledContent = rows
	}

	e.extraction = extraction

	return extraction, nil
}

// JSON renders the result of the last Extract call.
func (e *Extractor) JSON() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.extraction == nil {
		return "", ErrNotExtracted
	}

	data, err := json.Marshal(e.extraction)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (e *Extractor) sheetOrLog(ctx context.Context, word string) (string, bool) {
	sheet, err := e.findSheet(word)
	if err != nil {
		logger.WarnKV(ctx, "Skipping section", "error", err)
		return "", false
	}

	return sheet, true
}

// extractFields fills dst from the field table. It only fails when ctx is done.
func extractFields[T any](ctx context.Context, e *Extractor, sheet string, dst *T, fields []field[T]) error {
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := extractInto(e, sheet, dst, f)

		switch {
		case err == nil:
		case errors.Is(err, errLabelNotFound):
			logger.DebugKV(ctx, "Field not found", "sheet", sheet, "field", f.name)
		default:
			logger.WarnKV(ctx, "Unable to extract field", "sheet", sheet, "field", f.name, "error", err)
		}
	}

	return nil
}

// extractInto finds the first candidate range holding a matching label and reads the value next to it.
func extractInto[T any](e *Extractor, sheet string, dst *T, f field[T]) error {
	for _, r := range f.criteria.Ranges {
		label, err := e.cellValue(sheet, r.StartCell)
		if err != nil {
			return err
		}

		if !matchesAny(label, f.criteria.Labels) {
			continue
		}

		switch f.criteria.Kind {
		case KindCheckbox:
			checked, err := e.readCheckbox(sheet, r.StartCell, f.criteria.Checkbox)
			if err != nil {
				return err
			}

			*f.flag(dst) = checked
		case KindChoice:
			choice, err := e.readChoice(sheet, r.StartCell, f.criteria.Choices)
			if err != nil {
				return err
			}

			*f.text(dst) = choice
		default:
			value, err := e.readText(sheet, r.StartCell, f.criteria.Offset)
			if err != nil {
				return err
			}

			*f.text(dst) = value
		}

		return nil
	}

	return errLabelNotFound
}
