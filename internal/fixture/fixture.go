// Package fixture builds small SECCF workbooks for tests outside pkg/extractor.
package fixture

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	// BuyerSheet is the buyer details sheet name used by Workbook.
	BuyerSheet = "Section A - Buyer Details"
	// PartNumber is the part number Workbook stores.
	PartNumber = "PN-42"
	// PartDescription is the part description Workbook stores.
	PartDescription = "Flux capacitor"
)

// Workbook returns an xlsx document with a buyer details sheet
// holding PartNumber and PartDescription.
func Workbook(t testing.TB) []byte {
	t.Helper()

	f := excelize.NewFile()

	defer func() {
		require.NoError(t, f.Close())
	}()

	require.NoError(t, f.SetSheetName("Sheet1", BuyerSheet))

	for cell, value := range map[string]string{
		"B12": "Part Number",
		"E12": PartNumber,
		"B13": "Part Description",
		"E13": PartDescription,
	} {
		require.NoError(t, f.SetCellValue(BuyerSheet, cell, value))
	}

	var buf bytes.Buffer

	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	return buf.Bytes()
}
