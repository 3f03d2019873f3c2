package local

import (
	"fmt"
	"slices"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
	"gonum.org/v1/gonum/stat"
)

// dropThreshold is the missing percentage above which a feature is dropped.
const dropThreshold = 50.0

func handleMissing(t table.Table, target string, kind compute.TaskKind) (table.Table, []string, error) {
	tIdx := t.ColumnIndex(target)
	if tIdx < 0 {
		return table.Table{}, nil, fmt.Errorf("%w: target variable %q not found", ErrInvalidInput, target)
	}

	changes := []string{}
	n := t.NumRows()
	if n == 0 {
		return t.Clone(), changes, nil
	}

	var keep []int
	fills := make(map[int]string)
	for i, name := range t.Header {
		if i == tIdx {
			keep = append(keep, i)

			continue
		}
		c := parseColumn(columnAt(t, i))
		if c.nMiss == 0 {
			keep = append(keep, i)

			continue
		}

		pct := float64(c.nMiss) / float64(n) * 100
		if pct > dropThreshold {
			changes = append(changes, fmt.Sprintf("Dropped '%s' (> %.2f%%)", name, pct))

			continue
		}

		keep = append(keep, i)
		if c.numeric {
			fills[i] = formatFloat(stat.Mean(c.present(), nil))
		} else {
			fills[i] = mostFrequent(c)
		}
		changes = append(changes, fmt.Sprintf("Imputed '%s' (%.2f%%)", name, pct))
	}

	dropRows := false
	y := parseColumn(columnAt(t, tIdx))
	if y.nMiss > 0 {
		if kind == compute.Regression && y.numeric {
			fills[tIdx] = formatFloat(stat.Mean(y.present(), nil))
			changes = append(changes, fmt.Sprintf("Imputed numeric target '%s' (%d)", target, y.nMiss))
		} else {
			dropRows = true
			changes = append(changes, fmt.Sprintf("Dropped rows with missing '%s' (%d)", target, y.nMiss))
		}
	}

	header := make([]string, len(keep))
	for j, i := range keep {
		header[j] = t.Header[i]
	}

	rows := make([][]string, 0, n)
	for r, row := range t.Rows {
		if dropRows && y.missing[r] {
			continue
		}
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = row[i]
			if fill, ok := fills[i]; ok && isMissing(row[i]) {
				out[j] = fill
			}
		}
		rows = append(rows, out)
	}

	res, err := table.New(header, rows)
	if err != nil {
		return table.Table{}, nil, err
	}

	return res, changes, nil
}

// mostFrequent returns the modal non-missing cell; ties go to the smallest value.
func mostFrequent(c column) string {
	counts := make(map[string]int)
	for i, cell := range c.cells {
		if !c.missing[i] {
			counts[cell]++
		}
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	slices.Sort(values)

	best := ""
	for _, v := range values {
		if counts[v] > counts[best] {
			best = v
		}
	}

	return best
}
