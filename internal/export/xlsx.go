package export

import (
	"bytes"
	"fmt"

	"framex/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported entries.
const SheetName = "Entries"

// XLSX renders the same table as CSV into a single-sheet workbook. Amount
// cells are stored as numbers with two decimals.
func XLSX(entries []models.Entry, users []models.User, opts Options) ([]byte, error) {
	t := buildTable(entries, users, opts)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	amountFormat := "0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	for col, title := range t.header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(t.header), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for r, row := range t.rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if (col == t.paymentCol || col == t.receiptCol) && value != "" {
				// Full precision here; the 0.00 style handles display.
				amount := t.amounts[r].Round(2).InexactFloat64()
				if err := f.SetCellFloat(SheetName, cell, amount, -1, 64); err != nil {
					return nil, err
				}
				if err := f.SetCellStyle(SheetName, cell, cell, amountStyle); err != nil {
					return nil, err
				}
				continue
			}
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Render dispatches to the renderer for format.
func Render(format Format, entries []models.Entry, users []models.User, opts Options) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return XLSX(entries, users, opts)
	default:
		return CSV(entries, users, opts)
	}
}
