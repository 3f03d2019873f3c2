package table

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FromTransfer converts the JSON transfer form, where row 0 is the header and
// cells may be strings, numbers, booleans or null, into a validated table.
func FromTransfer(records [][]any) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: empty transfer payload", ErrMalformedTable)
	}

	header := make([]string, len(records[0]))
	for i, v := range records[0] {
		header[i] = FormatCell(v)
	}

	rows := make([][]string, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]string, len(rec))
		for j, v := range rec {
			row[j] = FormatCell(v)
		}
		rows[i] = row
	}

	normalize(header, rows)

	return New(header, rows)
}

// Transfer returns the JSON transfer form of the table, header first.
func (t Table) Transfer() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)

	return append(out, t.Rows...)
}

// FormatCell renders a decoded JSON value as a cell. null becomes an empty
// cell; floats use the shortest representation that round-trips.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
