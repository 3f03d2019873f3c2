package local

import (
	"strconv"
	"strings"
)

var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
	"n/a":  {},
	"-NaN": {},
	"-nan": {},
}

// missingCategory names the one-hot category formed by missing cells.
const missingCategory = "nan"

func isMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]

	return ok
}

// column is a parsed view over one table column.
type column struct {
	cells   []string
	values  []float64
	missing []bool
	numeric bool
	nMiss   int
}

func parseColumn(cells []string) column {
	c := column{
		cells:   cells,
		values:  make([]float64, len(cells)),
		missing: make([]bool, len(cells)),
		numeric: true,
	}
	for i, cell := range cells {
		if isMissing(cell) {
			c.missing[i] = true
			c.nMiss++

			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			c.numeric = false

			continue
		}
		c.values[i] = v
	}
	if c.nMiss == len(cells) {
		c.numeric = false
	}

	return c
}

// present returns the numeric values of non-missing cells.
func (c column) present() []float64 {
	out := make([]float64, 0, len(c.values)-c.nMiss)
	for i, v := range c.values {
		if !c.missing[i] {
			out = append(out, v)
		}
	}

	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
