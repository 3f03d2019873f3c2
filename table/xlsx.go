package table

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// FromXLSX reads one sheet of a spreadsheet into a table. An empty sheet name
// selects the first sheet. Rows shorter than the header are padded with empty
// cells, matching how spreadsheets omit trailing blanks.
func FromXLSX(r io.Reader, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, errors.Join(ErrMalformedTable, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, errors.Join(ErrMalformedTable, err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: sheet %q is empty", ErrMalformedTable, sheet)
	}

	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return Table{}, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, i+1, len(rec), len(header))
		}
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}

	normalize(header, rows)

	return New(header, rows)
}
