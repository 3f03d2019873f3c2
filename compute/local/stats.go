package local

import (
	"math"
	"slices"

	"github.com/absmach/tabula/compute"
	"github.com/absmach/tabula/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func statistics(t table.Table) compute.ColumnStatistics {
	report := make(compute.ColumnStatistics)
	for i, name := range t.Header {
		c := parseColumn(columnAt(t, i))
		if !c.numeric {
			continue
		}
		report[name] = describe(c.present())
	}

	return report
}

// describe mirrors a pandas describe() row: sample std and linear percentiles.
func describe(x []float64) map[string]any {
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	return map[string]any{
		"count": float64(len(x)),
		"mean":  finite(stat.Mean(x, nil)),
		"std":   finite(sampleStdDev(x)),
		"min":   finite(floats.Min(x)),
		"25%":   finite(percentile(sorted, 0.25)),
		"50%":   finite(percentile(sorted, 0.50)),
		"75%":   finite(percentile(sorted, 0.75)),
		"max":   finite(floats.Max(x)),
	}
}

func sampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}

	return stat.StdDev(x, nil)
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)

	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// finite maps NaN and infinities to nil so the report stays JSON encodable.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return v
}

func missingReport(t table.Table) compute.MissingReport {
	report := make(compute.MissingReport, len(t.Header))
	for i, name := range t.Header {
		n := 0
		for _, row := range t.Rows {
			if isMissing(row[i]) {
				n++
			}
		}
		report[name] = n
	}

	return report
}

func columnAt(t table.Table, idx int) []string {
	col := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[idx]
	}

	return col
}
