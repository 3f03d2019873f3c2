package local

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/absmach/tabula/table"
)

// encode one-hot encodes non-numeric features with the first sorted category
// dropped, then label-encodes a non-numeric target. The result lists encoded
// columns, then numeric features, then the target. classes[k] is the class
// behind label k, or nil when the target was left as is.
func encode(t table.Table, target string) (table.Table, []string, error) {
	tIdx := -1
	if target != "" {
		if tIdx = t.ColumnIndex(target); tIdx < 0 {
			return table.Table{}, nil, fmt.Errorf("%w: target variable %q not found", ErrInvalidInput, target)
		}
	}

	type oneHot struct {
		idx        int
		categories []string
	}

	var (
		encoded []oneHot
		numeric []int
		header  []string
	)
	for i, name := range t.Header {
		if i == tIdx {
			continue
		}
		c := parseColumn(columnAt(t, i))
		if c.numeric {
			numeric = append(numeric, i)

			continue
		}
		cats := categories(c)
		if len(cats) == 0 {
			continue
		}
		encoded = append(encoded, oneHot{idx: i, categories: cats[1:]})
		for _, cat := range cats[1:] {
			header = append(header, name+"_"+cat)
		}
	}
	for _, i := range numeric {
		header = append(header, t.Header[i])
	}

	var (
		labels  map[string]int
		classes []string
	)
	if tIdx >= 0 {
		header = append(header, target)
		y := parseColumn(columnAt(t, tIdx))
		if !y.numeric {
			if y.nMiss > 0 {
				return table.Table{}, nil, fmt.Errorf("%w: target variable %q has %d missing values", ErrInvalidInput, target, y.nMiss)
			}
			classes = categories(y)
			labels = make(map[string]int, len(classes))
			for k, class := range classes {
				labels[class] = k
			}
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, 0, len(header))
		for _, enc := range encoded {
			cell := row[enc.idx]
			if isMissing(cell) {
				cell = missingCategory
			}
			for _, cat := range enc.categories {
				if cell == cat {
					out = append(out, "1")
				} else {
					out = append(out, "0")
				}
			}
		}
		for _, i := range numeric {
			out = append(out, row[i])
		}
		if tIdx >= 0 {
			if labels != nil {
				out = append(out, strconv.Itoa(labels[row[tIdx]]))
			} else {
				out = append(out, row[tIdx])
			}
		}
		rows[r] = out
	}

	res, err := table.New(header, rows)
	if err != nil {
		return table.Table{}, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return res, classes, nil
}

// categories returns the sorted distinct non-missing cells, with the missing
// category last when any cell is missing.
func categories(c column) []string {
	seen := make(map[string]struct{})
	for i, cell := range c.cells {
		if !c.missing[i] {
			seen[cell] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen)+1)
	for v := range seen {
		cats = append(cats, v)
	}
	slices.Sort(cats)
	if c.nMiss > 0 {
		cats = append(cats, missingCategory)
	}

	return cats
}
