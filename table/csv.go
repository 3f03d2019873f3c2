package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Parse reads comma-delimited text into a table. The first record is the
// header. Empty input and ragged rows yield ErrMalformedTable.
func Parse(data []byte) (Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, fmt.Errorf("%w: empty input", ErrMalformedTable)
	}

	r := csv.NewReader(bytes.NewReader(data))
	// Let Validate report ragged rows with the table's own wording.
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, errors.Join(ErrMalformedTable, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: empty input", ErrMalformedTable)
	}

	return New(records[0], records[1:])
}

// Encode writes the table as comma-delimited text, header first.
func Encode(t Table) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		// A lone empty field would be written as a blank line, which readers skip.
		if len(row) == 1 && row[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")

			continue
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
