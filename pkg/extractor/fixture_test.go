package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	buyerSheet      = "Section A - LUK Buyer Details"
	productSheet    = "Section B - Product Details"
	controlledSheet = "Section C - Controlled Content"
)

// checkbox is a checkbox control placed in a fixture sheet.
type checkbox struct {
	cell    string
	text    string
	checked bool
}

// sheetFixture is the content of one fixture sheet.
type sheetFixture struct {
	name   string
	cells  map[string]string
	merges [][2]string
	boxes  []checkbox
}

// writeWorkbook saves the sheets to a temporary xlsx file and returns its path.
// Form controls only survive a save, so tests always read the saved file.
func writeWorkbook(t *testing.T, sheets ...sheetFixture) string {
	t.Helper()

	f := excelize.NewFile()

	defer func() {
		require.NoError(t, f.Close())
	}()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}

		for cell, value := range sheet.cells {
			require.NoError(t, f.SetCellValue(sheet.name, cell, value))
		}

		for _, merge := range sheet.merges {
			require.NoError(t, f.MergeCell(sheet.name, merge[0], merge[1]))
		}

		for _, box := range sheet.boxes {
			require.NoError(t, f.AddFormControl(sheet.name, excelize.FormControl{
				Cell:    box.cell,
				Type:    excelize.FormControlCheckBox,
				Text:    box.text,
				Checked: box.checked,
				Height:  20,
			}))
		}
	}

	path := filepath.Join(t.TempDir(), "seccf.xlsx")
	require.NoError(t, f.SaveAs(path))

	return path
}

func buyerFixture() sheetFixture {
	return sheetFixture{
		name: buyerSheet,
		cells: map[string]string{
			"B12": "Part Number",
			"E12": " PN-100 ",
			"B13": "Part   description",
			"E13": "Hydraulic pump",
			"B15": "Amazon Inc Classification of item",
			"B18": "Control list classification number",
			"E18": "ML10",
			"B19": "Quote reference",
			"D19": "Q-77",
			"B21": "Build To Print",
			"B22": "Manufactured to specification (MTS)",
			"B23": "Original Equipment Manufacturer",
		},
		// E19 is the value cell of the RFQ label and is covered by this merge.
		merges: [][2]string{{"D19", "F19"}},
		boxes: []checkbox{
			{cell: "E15", text: "Dual", checked: true},
			{cell: "F15", text: "Military"},
			{cell: "G21", text: "YES", checked: true},
			{cell: "G22", text: "YES"},
			{cell: "G23", text: "yes", checked: true},
		},
	}
}

func productFixture() sheetFixture {
	return sheetFixture{
		name: productSheet,
		cells: map[string]string{
			"C11": "Supplier part number",
			"E11": "SUP-1",
			"C12": "Company name",
			"D12": "Acme Ltd",
			"C14": "Country",
			"D14": "United Kingdom",
			"B21": "Country of origin",
			"E21": "Germany",
			"B23": "Is the product subject to export control regulations?",
			"B24": "Classification of the part",
			"B29": "Third country controlled content",
			"B33": "Export Licence for shipment to Amazon Specified End User",
			"B49": "Name",
			"E49": "Jane Doe",
			"B50": "Position in the company",
			"E50": "Export manager",
		},
		boxes: []checkbox{
			{cell: "E23", text: "YES", checked: true},
			{cell: "F23", text: "No"},
			{cell: "E24", text: "DU", checked: true},
			{cell: "E24", text: "MIL"},
			{cell: "G24", text: "CIVIL"},
			{cell: "E29", text: "YES", checked: true},
			{cell: "F29", text: "No", checked: true},
			{cell: "F33", text: "YES"},
			{cell: "F33", text: "NO"},
			{cell: "F33", text: "END USER NOT ADVISED TO SUPPLIER", checked: true},
		},
	}
}

func controlledFixture() sheetFixture {
	return sheetFixture{
		name: controlledSheet,
		cells: map[string]string{
			"A11": "Item",
			"B11": "Part Number",
			"C11": "Component  description",
			"D11": "ECCN N°",
			"A12": "1",
			"B12": "P-1",
			"C12": " Bolt ",
			"D12": "EAR99",
			"A13": "2",
			"B13": "P-2",
			"C13": "Nut",
			"D13": "5A991",
			"B15": "after the gap",
		},
	}
}
