// Package table holds the in-memory representation of a tabular dataset and
// the conversions between it and its transfer formats.
package table

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
)

const (
	unitSep   = 0x1f
	recordSep = 0x1e

	byteOrderMark = "\ufeff"
	crlf          = "\r\n"
)

var (
	// ErrMalformedTable indicates a structural violation: empty input, empty or
	// duplicate header names, or rows whose cell count differs from the header.
	ErrMalformedTable = errors.New("malformed table")

	errColumnNotFound = errors.New("column not found")
)

// Table is a header plus data rows. Every row has exactly len(Header) cells.
// A Table is treated as immutable once built; stages replace it wholesale.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// New builds a table and validates it.
func New(header []string, rows [][]string) (Table, error) {
	t := Table{Header: header, Rows: rows}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}

	return t, nil
}

// Validate checks the header and row-length invariants. Cells must not hold
// CR LF pairs and the first column name must not start with a byte order
// mark, since delimited text cannot carry either unchanged.
func (t Table) Validate() error {
	if len(t.Header) == 0 {
		return fmt.Errorf("%w: empty header", ErrMalformedTable)
	}
	if strings.HasPrefix(t.Header[0], byteOrderMark) {
		return fmt.Errorf("%w: column 0 starts with a byte order mark", ErrMalformedTable)
	}

	seen := make(map[string]struct{}, len(t.Header))
	for i, name := range t.Header {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: column %d has an empty name", ErrMalformedTable, i)
		}
		if strings.Contains(name, crlf) {
			return fmt.Errorf("%w: column %d name holds a CR LF line break", ErrMalformedTable, i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate column %q", ErrMalformedTable, name)
		}
		seen[name] = struct{}{}
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, i+1, len(row), len(t.Header))
		}
		for j, cell := range row {
			if strings.Contains(cell, crlf) {
				return fmt.Errorf("%w: row %d column %d holds a CR LF line break", ErrMalformedTable, i+1, j)
			}
		}
	}

	return nil
}

// normalize rewrites CR LF line breaks as LF and drops a byte order mark
// leading the header, so that tables read from other formats validate.
func normalize(header []string, rows [][]string) {
	for i, name := range header {
		header[i] = strings.ReplaceAll(name, crlf, "\n")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}
	for _, row := range rows {
		for j, cell := range row {
			row[j] = strings.ReplaceAll(cell, crlf, "\n")
		}
	}
}

// NumRows returns the number of data rows, header excluded.
func (t Table) NumRows() int {
	return len(t.Rows)
}

// IsZero reports whether the table holds no header at all.
func (t Table) IsZero() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	if t.IsZero() {
		return Table{}
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Clone(row)
	}

	return Table{Header: slices.Clone(t.Header), Rows: rows}
}

// Equal reports whether both tables have the same header and cells.
func (t Table) Equal(other Table) bool {
	if !slices.Equal(t.Header, other.Header) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], other.Rows[i]) {
			return false
		}
	}

	return true
}

// ColumnIndex returns the position of name in the header, or -1.
func (t Table) ColumnIndex(name string) int {
	return slices.Index(t.Header, name)
}

// HasColumn reports whether name is part of the header.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns a copy of the cells of the named column.
func (t Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", errColumnNotFound, name)
	}
	col := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[idx]
	}

	return col, nil
}

// DropColumn returns a new table without the named column.
func (t Table) DropColumn(name string) (Table, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return Table{}, fmt.Errorf("%w: %q", errColumnNotFound, name)
	}

	header := slices.Delete(slices.Clone(t.Header), idx, idx+1)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Delete(slices.Clone(row), idx, idx+1)
	}

	return Table{Header: header, Rows: rows}, nil
}

// Preview returns the header and at most maxRows leading rows as a copy.
// It is meant for display; stage calls always take the full table.
func Preview(t Table, maxRows int) Table {
	if maxRows < 0 {
		maxRows = 0
	}
	n := min(maxRows, len(t.Rows))
	p := Table{Header: slices.Clone(t.Header), Rows: make([][]string, n)}
	for i := range n {
		p.Rows[i] = slices.Clone(t.Rows[i])
	}

	return p
}

// Fingerprint returns the hex xxh3 digest of the table contents. Two tables
// with equal header and cells share a fingerprint.
func (t Table) Fingerprint() string {
	var buf bytes.Buffer
	for _, name := range t.Header {
		buf.WriteString(name)
		buf.WriteByte(unitSep)
	}
	buf.WriteByte(recordSep)
	for _, row := range t.Rows {
		for _, cell := range row {
			buf.WriteString(cell)
			buf.WriteByte(unitSep)
		}
		buf.WriteByte(recordSep)
	}

	sum := make([]byte, 8)
	binary.BigEndian.PutUint64(sum, xxh3.Hash(buf.Bytes()))

	return hex.EncodeToString(sum)
}
