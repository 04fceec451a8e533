package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFindSheet matches case-insensitively and prefers the last match.
func TestFindSheet(t *testing.T) {
	t.Parallel()

	e := openFixture(t, nil,
		sheetFixture{name: "Old buyer details"},
		sheetFixture{name: "Instructions"},
		sheetFixture{name: "Section A - BUYER DETAILS"},
	)

	sheet, err := e.FindSheet("buyer details")
	require.NoError(t, err)
	require.Equal(t, "Section A - BUYER DETAILS", sheet)

	_, err = e.FindSheet("controlled content")

	var notFound *SheetNotFoundError

	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "controlled content", notFound.SearchWord)
	require.Len(t, e.SheetNames(), 3)
}

// TestCellValue trims values and falls back to the merged range.
func TestCellValue(t *testing.T) {
	t.Parallel()

	e := openFixture(t, nil, buyerFixture())

	value, err := e.CellValue(buyerSheet, "E12")
	require.NoError(t, err)
	require.Equal(t, "PN-100", value)

	value, err = e.CellValue(buyerSheet, "F19")
	require.NoError(t, err)
	require.Equal(t, "Q-77", value)

	value, err = e.CellValue(buyerSheet, "G19")
	require.NoError(t, err)
	require.Empty(t, value)

	_, err = e.CellValue("Missing", "A1")
	require.Error(t, err)
}

// TestCheckboxChecked matches controls by cell and caption.
func TestCheckboxChecked(t *testing.T) {
	t.Parallel()

	e := openFixture(t, nil, buyerFixture())

	checked, err := e.checkboxChecked(buyerSheet, "E15", []string{"DU", "dual"})
	require.NoError(t, err)
	require.True(t, checked)

	checked, err = e.checkboxChecked(buyerSheet, "E15", []string{"Military"})
	require.NoError(t, err)
	require.False(t, checked, "caption must match")

	checked, err = e.checkboxChecked(buyerSheet, "A1", []string{"YES"})
	require.NoError(t, err)
	require.False(t, checked)
}
