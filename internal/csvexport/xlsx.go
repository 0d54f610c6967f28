package csvexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"greenledger/internal/domain"
)

const xlsxSheet = "Invoices"

// WriteXLSX writes the same flattened rows as the CSV writer into an
// Excel workbook.
func WriteXLSX(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("csvexport.WriteXLSX: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &Columns); err != nil {
		return fmt.Errorf("csvexport.WriteXLSX: header: %w", err)
	}

	rowNum := 2
	for i := range invoices {
		for _, row := range InvoiceRows(&invoices[i]) {
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
				return fmt.Errorf("csvexport.WriteXLSX: row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("csvexport.WriteXLSX: write: %w", err)
	}
	return nil
}
