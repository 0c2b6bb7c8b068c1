package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

const SheetName = "Items"

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
// Prices land in numeric cells; the currency gets its own column.
func WriteXLSX(w io.Writer, rows []view.ItemRow, baseCurrency string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	header := []any{"Date", "Order ID", "Item Name", "Tags", "Price (Original)", "Currency", "Price (Base)", "Base Currency", "Tracking", "Status"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, l := range Lines(rows, baseCurrency) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		orig, _ := l.PriceOriginal.Float64()
		base, _ := l.PriceBase.Float64()
		row := []any{l.Date, l.OrderNumber, l.ItemName, l.Tags, orig, l.Currency, base, l.BaseCurrency, l.Tracking, l.Status}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}
