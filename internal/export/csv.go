package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ariefcatur/go-parcel-ledger/internal/view"
)

// bom makes spreadsheet apps read the file as UTF-8.
const bom = "\ufeff"

// WriteCSV writes the header and one record per item row.
func WriteCSV(w io.Writer, rows []view.ItemRow, baseCurrency string) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, l := range Lines(rows, baseCurrency) {
		if err := cw.Write(l.record()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
